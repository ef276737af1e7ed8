package wsfeed

import (
	"encoding/json"
	"testing"
	"time"

	"citywatch/models"
)

func TestHubBroadcastReport(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	client := NewClient(hub, nil)
	hub.register <- client

	// Wait for the register to land.
	deadline := time.After(time.Second)
	for hub.ConnectedClients() != 1 {
		select {
		case <-deadline:
			t.Fatal("client never registered")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	report := &models.Report{ID: "r-1", Category: "Pothole", Status: models.StatusOpen}
	hub.BroadcastReport(report)

	select {
	case data := <-client.send:
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("failed to decode broadcast: %v", err)
		}
		if msg.Type != "report" {
			t.Errorf("expected message type report, got %s", msg.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("broadcast never delivered")
	}
}

func TestHubDropsSlowClient(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	client := NewClient(hub, nil)
	client.send = make(chan []byte) // unbuffered, nothing reading
	hub.register <- client

	deadline := time.After(time.Second)
	for hub.ConnectedClients() != 1 {
		select {
		case <-deadline:
			t.Fatal("client never registered")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	hub.BroadcastReport(&models.Report{ID: "r-1"})

	deadline = time.After(time.Second)
	for hub.ConnectedClients() != 0 {
		select {
		case <-deadline:
			t.Fatal("slow client never dropped")
		default:
			time.Sleep(time.Millisecond)
		}
	}
}
