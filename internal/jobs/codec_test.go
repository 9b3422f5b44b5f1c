package jobs

import (
	"testing"
)

func TestEncodeDecode_WelcomeEmail(t *testing.T) {
	payload := WelcomeEmailPayload{
		Email: "ada@example.com",
		Name:  "Ada",
	}

	j, err := NewJob(JobWelcomeEmail, payload)
	if err != nil {
		t.Fatalf("NewJob error: %v", err)
	}

	if j.ID == "" {
		t.Fatalf("expected a job ID")
	}

	decoded, err := DecodePayload(j)
	if err != nil {
		t.Fatalf("DecodePayload error: %v", err)
	}

	p, ok := decoded.(WelcomeEmailPayload)
	if !ok {
		t.Fatalf("expected WelcomeEmailPayload, got %T", decoded)
	}

	if p.Email != payload.Email {
		t.Fatalf("expected email %s, got %s", payload.Email, p.Email)
	}
}

func TestEncodePayload_TypeMismatch(t *testing.T) {
	_, err := EncodePayload(JobWelcomeEmail, FarewellEmailPayload{
		Email: "ada@example.com",
		Name:  "Ada",
	})
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	if err != ErrPayloadTypeMismatch {
		t.Fatalf("expected ErrPayloadTypeMismatch, got %v", err)
	}
}

func TestEncodePayload_UnknownType(t *testing.T) {
	_, err := EncodePayload(JobType("bogus"), WelcomeEmailPayload{Email: "a@b.c"})
	if err != ErrInvalidJobType {
		t.Fatalf("expected ErrInvalidJobType, got %v", err)
	}
}

func TestEncodeDecodeJob_RoundTrip(t *testing.T) {
	j, err := NewJob(JobFarewellEmail, FarewellEmailPayload{
		Email: "bye@example.com",
		Name:  "Grace",
	})
	if err != nil {
		t.Fatalf("NewJob error: %v", err)
	}

	raw, err := EncodeJob(j)
	if err != nil {
		t.Fatalf("EncodeJob error: %v", err)
	}

	got, err := DecodeJob(raw)
	if err != nil {
		t.Fatalf("DecodeJob error: %v", err)
	}

	if got.ID != j.ID || got.Type != j.Type {
		t.Fatalf("envelope mismatch: got %+v want %+v", got, j)
	}
}

func TestDecodeJob_UnknownType(t *testing.T) {
	_, err := DecodeJob([]byte(`{"id":"x","type":"mystery","payload":{}}`))
	if err != ErrInvalidJobType {
		t.Fatalf("expected ErrInvalidJobType, got %v", err)
	}
}
