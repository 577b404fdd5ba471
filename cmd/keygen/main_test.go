package main

import (
	"bytes"
	"encoding/base64"
	"io"
	"os"
	"strings"
	"testing"

	svix "github.com/standard-webhooks/standard-webhooks/libraries/go"

	"github.com/golang-jwt/jwt/v5"
)

func TestKeyGeneration(t *testing.T) {
	// Capture stdout to test the output
	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	main()

	// Restore stdout and get the output
	w.Close()
	os.Stdout = oldStdout
	var buf bytes.Buffer
	io.Copy(&buf, r)
	output := buf.String()

	if !strings.Contains(output, "Generated Hookline secrets") {
		t.Error("Output doesn't contain expected header")
	}

	// Extract secrets from output
	lines := strings.Split(output, "\n")
	var jwtSecret, signingSecret string
	for i, line := range lines {
		if strings.Contains(line, "JWT_SECRET") && i+1 < len(lines) {
			jwtSecret = lines[i+1]
		}
		if strings.Contains(line, "WEBHOOK_SIGNING_SECRET") && i+1 < len(lines) {
			signingSecret = lines[i+1]
		}
	}

	// The JWT secret must be valid base64 and long enough for HS256
	jwtSecretBytes, err := base64.StdEncoding.DecodeString(jwtSecret)
	if err != nil {
		t.Errorf("Failed to decode JWT secret: %v", err)
	}
	if len(jwtSecretBytes) != 32 {
		t.Errorf("Expected 32 byte JWT secret, got %d", len(jwtSecretBytes))
	}

	// The generated secret must sign and verify a token
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "test"})
	signed, err := token.SignedString([]byte(jwtSecret))
	if err != nil {
		t.Fatalf("Failed to sign token with generated secret: %v", err)
	}
	parsed, err := jwt.ParseWithClaims(signed, &jwt.RegisteredClaims{}, func(*jwt.Token) (interface{}, error) {
		return []byte(jwtSecret), nil
	})
	if err != nil || !parsed.Valid {
		t.Errorf("Failed to verify token with generated secret: %v", err)
	}

	// The signing secret must carry the whsec_ prefix and satisfy the
	// standard-webhooks signer
	if !strings.HasPrefix(signingSecret, "whsec_") {
		t.Errorf("Expected whsec_ prefix, got %q", signingSecret)
	}
	if _, err := svix.NewWebhook(signingSecret); err != nil {
		t.Errorf("Generated signing secret rejected by webhook signer: %v", err)
	}
}
