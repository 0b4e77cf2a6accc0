package log

import (
	"testing"
	"time"
)

func TestEventCBORRoundTrip(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 123456789, time.UTC)

	tests := []struct {
		name  string
		event Event
	}{
		{
			name: "structure",
			event: Event{
				Timestamp:     ts,
				InstanceID:    "bc-1",
				Role:          RoleProducer,
				Layer:         LayerBroadcast,
				Category:      CategoryStructure,
				SchemaVersion: 3,
				LayoutID:      "0f0e",
				Structure: &StructureEvent{
					Action:      StructurePublished,
					Version:     3,
					NumPackages: 5,
					Capacity:    512,
					Sequence:    9,
					Reason:      "grow",
				},
			},
		},
		{
			name: "frame",
			event: Event{
				Timestamp: ts,
				Role:      RoleConsumer,
				Layer:     LayerReceiver,
				Category:  CategoryFrame,
				Frame:     &FrameEvent{Outcome: FrameTorn, Version: 3},
			},
		},
		{
			name: "subscription",
			event: Event{
				Timestamp:    ts,
				Role:         RoleConsumer,
				Layer:        LayerReceiver,
				Category:     CategorySubscription,
				Subscription: &SubscriptionEvent{Address: "a/1", Index: -1, Active: true},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := EncodeEvent(tt.event)
			if err != nil {
				t.Fatalf("EncodeEvent failed: %v", err)
			}
			got, err := DecodeEvent(data)
			if err != nil {
				t.Fatalf("DecodeEvent failed: %v", err)
			}

			if !got.Timestamp.Equal(tt.event.Timestamp) {
				t.Errorf("Timestamp = %v, want %v", got.Timestamp, tt.event.Timestamp)
			}
			if got.Role != tt.event.Role || got.Layer != tt.event.Layer || got.Category != tt.event.Category {
				t.Errorf("header = %s/%s/%s", got.Role, got.Layer, got.Category)
			}
			if tt.event.Structure != nil && *got.Structure != *tt.event.Structure {
				t.Errorf("Structure = %+v, want %+v", got.Structure, tt.event.Structure)
			}
			if tt.event.Frame != nil && *got.Frame != *tt.event.Frame {
				t.Errorf("Frame = %+v, want %+v", got.Frame, tt.event.Frame)
			}
			if tt.event.Subscription != nil && *got.Subscription != *tt.event.Subscription {
				t.Errorf("Subscription = %+v, want %+v", got.Subscription, tt.event.Subscription)
			}
		})
	}
}

func TestEnumStrings(t *testing.T) {
	if RoleConsumer.String() != "CONSUMER" || Role(9).String() != "UNKNOWN" {
		t.Error("Role.String")
	}
	if LayerLayout.String() != "LAYOUT" || Layer(9).String() != "UNKNOWN" {
		t.Error("Layer.String")
	}
	if CategoryError.String() != "ERROR" || Category(9).String() != "UNKNOWN" {
		t.Error("Category.String")
	}
	if FrameStale.String() != "STALE" || StructureIgnored.String() != "IGNORED" {
		t.Error("outcome/action String")
	}
}
