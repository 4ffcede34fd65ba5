// Command hashpass prints a bcrypt hash for ADMIN_PASSWORD_HASH or
// OPERATOR_PASSWORD_HASH.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"syscall"

	"guardx/internal/common/security"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
)

func main() {
	cost := flag.Int("cost", bcrypt.DefaultCost, "bcrypt cost")
	flag.Parse()

	fmt.Print("Enter password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		slog.Error("Error reading password", "error", err)
		os.Exit(1)
	}
	if len(bytePassword) == 0 {
		slog.Error("Password must not be empty")
		os.Exit(1)
	}

	hashedPassword, err := security.HashPassword(string(bytePassword), *cost)
	if err != nil {
		slog.Error("Error hashing password", "error", err)
		os.Exit(1)
	}

	fmt.Printf("Hashed password: %s\n", hashedPassword)
}
