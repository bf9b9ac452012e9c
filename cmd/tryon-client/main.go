package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/raushankrgupta/fitly-tryon/client"
	"github.com/raushankrgupta/fitly-tryon/models"
)

// tryon-client uploads a person photo and a garment photo, runs a try-on and
// prints the result and the caller's ledger.
func main() {
	baseURL := flag.String("url", "http://localhost:8080", "service base URL")
	token := flag.String("token", os.Getenv("FITLY_TOKEN"), "bearer token (defaults to $FITLY_TOKEN)")
	person := flag.String("person", "", "path to the person photo (required)")
	garment := flag.String("garment", "", "path to the garment photo (required)")
	list := flag.Bool("list", true, "print the outfit ledger afterwards")
	flag.Parse()

	if *person == "" || *garment == "" {
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	c := client.New(*baseURL, client.NewSession(*token))

	payloads := make([]models.UploadPayload, 0, 2)
	for _, path := range []string{*person, *garment} {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Fatalf("Failed to read %s: %v", path, err)
		}
		payloads = append(payloads, models.UploadPayload{Filename: filepath.Base(path), Data: data})
	}

	refs, err := c.Upload(ctx, payloads)
	if err != nil {
		log.Fatalf("Upload failed: %v", err)
	}
	if len(refs) != 2 {
		log.Fatalf("Upload returned %d references, want 2", len(refs))
	}
	for _, ref := range refs {
		fmt.Printf("Uploaded: %s -> %s\n", ref.StoragePath, ref.PublicURL)
	}

	resp, err := c.Generate(ctx, refs[0], refs[1])
	if err != nil {
		log.Fatalf("Try-on failed: %v", err)
	}
	fmt.Printf("Result: %s (%s)\n", resp.ResultImage, resp.Message)

	if !*list {
		return
	}
	page, err := c.ListOutfits(ctx, 0, 0)
	if err != nil {
		log.Fatalf("Failed to list outfits: %v", err)
	}
	b, _ := json.MarshalIndent(page, "", "  ")
	fmt.Printf("Outfits: %s\n", string(b))
	fmt.Println("--------------------------------------------------")
}
