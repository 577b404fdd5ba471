package main

import (
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func main() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: go run cmd/token/main.go <operator_id> <jwt_secret> [ttl]")
		os.Exit(1)
	}

	operatorID := os.Args[1]
	secret := os.Args[2]

	ttl := 24 * time.Hour
	if len(os.Args) > 3 {
		parsed, err := time.ParseDuration(os.Args[3])
		if err != nil {
			fmt.Printf("Invalid ttl %q: %v\n", os.Args[3], err)
			os.Exit(1)
		}
		ttl = parsed
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   operatorID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	})

	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		fmt.Printf("Failed to sign token: %v\n", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Printf("Operator: %s\n", operatorID)
	fmt.Printf("Expires:  %s\n", now.Add(ttl).Format(time.RFC3339))
	fmt.Println()
	fmt.Printf("Authorization: Bearer %s\n", signed)
}
