package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func TestSubject(t *testing.T) {
	cases := map[[2]string]string{
		{"threatone", ActionSettled}:  "threatone.action.settled",
		{"threatone.", AssetVerified}: "threatone.asset.verified",
		{"", LeaksUploaded}:           "leaks.uploaded",
	}
	for in, want := range cases {
		if got := Subject(in[0], in[1]); got != want {
			t.Fatalf("Subject(%q, %q) = %q, want %q", in[0], in[1], got, want)
		}
	}
}

func TestEncode(t *testing.T) {
	at := time.Date(2026, 10, 19, 10, 0, 0, 0, time.FixedZone("BRT", -3*3600))
	payload, err := encode(AssetVerified, at, map[string]string{"id": "a1", "status": "Protected"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var got struct {
		Type string            `json:"type"`
		At   time.Time         `json:"at"`
		Data map[string]string `json:"data"`
	}
	if err := json.Unmarshal(payload, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Type != AssetVerified || !got.At.Equal(at) || got.At.Location() != time.UTC || got.Data["status"] != "Protected" {
		t.Fatalf("unexpected event: %#v", got)
	}
}

func TestNop(t *testing.T) {
	var p Publisher = Nop{}
	if err := p.Publish(context.Background(), ActionSettled, nil); err != nil {
		t.Fatalf("nop publish: %v", err)
	}
	p.Close()
}
