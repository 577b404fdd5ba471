package main

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
)

func randomSecret(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		fmt.Printf("Failed to generate random bytes: %v\n", err)
		os.Exit(1)
	}
	return base64.StdEncoding.EncodeToString(buf)
}

func main() {
	fmt.Println("Generated Hookline secrets")
	fmt.Println()
	fmt.Println("JWT_SECRET (keep this secret!):")
	fmt.Println(randomSecret(32))
	fmt.Println()
	fmt.Println("WEBHOOK_SIGNING_SECRET (keep this secret!):")
	fmt.Println("whsec_" + randomSecret(32))
}
