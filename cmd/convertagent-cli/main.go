// A headless client for the agent backend: submits one conversion from
// the command line and prints progress steps as they stream in.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/aliveriver/ConvertAgent/internal/agent"
	"github.com/aliveriver/ConvertAgent/internal/progress"
)

func main() {
	backend := flag.String("backend", "http://localhost:8765", "Agent backend origin")
	provider := flag.String("provider", "", "AI provider id (optional, backend default if empty)")
	apiKey := flag.String("api-key", "", "API key to initialize the backend with (optional if already initialized)")
	template := flag.String("template", "", "Path to the template document")
	content := flag.String("content", "", "Path to the content document")
	format := flag.String("format", "word", "Output format (word, markdown, latex)")
	instruction := flag.String("instruction", "", "Additional instructions for the conversion")
	flag.Parse()

	if *template == "" || *content == "" {
		log.Fatal("Both -template and -content are required.")
	}

	origin := strings.TrimRight(*backend, "/")
	client := agent.New(origin)
	ctx := context.Background()

	if err := client.CheckCompatibility(ctx, "1.0.0"); err != nil {
		log.Fatalf("Backend check failed: %v", err)
	}

	if *apiKey != "" {
		if err := client.Init(ctx, *provider, *apiKey); err != nil {
			log.Fatalf("Failed to initialize agent: %v", err)
		}
		log.Println("Agent initialized.")
	}

	// Print each new progress step as the backend reports it.
	printed := 0
	consumer := progress.New(origin)
	consumer.SetOnChange(func(snap progress.Snapshot) {
		for ; printed < len(snap.Steps); printed++ {
			step := snap.Steps[printed]
			fmt.Printf("[%s] %s: %s\n", progress.StepTimestamp(step), step.Type, step.Message)
		}
	})
	if err := consumer.EnsureRunning(ctx); err != nil {
		log.Printf("Warning: progress stream unavailable: %v", err)
	}
	defer consumer.Close()

	log.Printf("Converting %s with template %s to %s...", *content, *template, *format)
	result, err := client.ProcessWithTemplate(ctx, agent.ProcessRequest{
		TemplatePath: *template,
		ContentPath:  *content,
		OutputFormat: *format,
		Instruction:  *instruction,
	})
	if err != nil {
		log.Fatalf("Conversion failed: %v", err)
	}

	// Give trailing stream events a moment to arrive before exiting.
	time.Sleep(500 * time.Millisecond)

	if result.Summary != "" {
		fmt.Println(result.Summary)
	}
	if result.OutputPath != "" {
		fmt.Printf("Output file: %s\n", progress.ResolveFileURL(origin, result.OutputPath))
	}
	fmt.Println("Conversion finished successfully.")
}
