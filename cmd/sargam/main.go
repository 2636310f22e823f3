package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/sargamlabs/sargam/logging"
	"github.com/sargamlabs/sargam/server"
	"github.com/sargamlabs/sargam/transcode"
	"github.com/sargamlabs/sargam/transcribe"
)

var (
	verbose bool

	srutiHz    float64
	jsonOutput bool

	port    int
	origins string
	tempDir string
)

func main() {
	// Optional .env in the working directory seeds the environment
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "sargam",
		Short: "Carnatic vocal transcription",
		Long:  "Transcribes a monophonic vocal recording into time-aligned swaram notation and infers the most likely raaga.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				logging.SetLevel(logging.DebugLevel)
			}
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	transcribeCmd := &cobra.Command{
		Use:   "transcribe <file.wav>",
		Short: "Transcribe a WAV recording to swaram notation",
		Args:  cobra.ExactArgs(1),
		RunE:  runTranscribe,
	}
	transcribeCmd.Flags().Float64Var(&srutiHz, "sruti", 0, "tonic (Sa) frequency in Hz; 0 uses the default")
	transcribeCmd.Flags().BoolVar(&jsonOutput, "json", false, "emit JSON instead of a table")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the transcription HTTP API",
		RunE:  runServe,
	}
	serveCmd.Flags().IntVar(&port, "port", envInt("SARGAM_PORT", 8000), "HTTP server port")
	serveCmd.Flags().StringVar(&origins, "origins", envString("SARGAM_ORIGINS", "*"), "comma-separated allowed CORS origins")
	serveCmd.Flags().StringVar(&tempDir, "temp-dir", envString("SARGAM_TEMP_DIR", ""), "directory for uploaded files")

	rootCmd.AddCommand(transcribeCmd, serveCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runTranscribe(cmd *cobra.Command, args []string) error {
	audio, err := transcode.NewDecoder().DecodeFile(args[0])
	if err != nil {
		return err
	}

	transcriber := transcribe.NewTranscriber(nil)
	notes, err := transcriber.Transcribe(audio.PCM, audio.SampleRate, srutiHz)
	if err != nil {
		return err
	}
	match := transcriber.DetectRaaga(notes)

	if jsonOutput {
		out, err := json.MarshalIndent(map[string]any{
			"swarams": notes,
			"raaga":   match,
		}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	if len(notes) == 0 {
		fmt.Println("no swarams detected")
		return nil
	}

	for _, n := range notes {
		gamakam := "-"
		if n.Gamakam != "" {
			gamakam = n.Gamakam
		}
		fmt.Printf("%7.3fs %7.3fs  %-4s %-7s %-9s %.2f\n",
			n.Start, n.End, n.Swaram, n.Octave, gamakam, n.Confidence)
	}

	if match != nil {
		fmt.Printf("\nraaga: %s (%s), confidence %.2f\n",
			match.Candidate.Name, match.Candidate.System, match.Confidence)
	} else {
		fmt.Println("\nraaga: no confident match")
	}

	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	config := server.DefaultConfig()
	config.Port = port
	config.TempDir = tempDir
	config.AllowedOrigins = splitOrigins(origins)

	return server.NewServer(transcribe.NewTranscriber(nil), config).ListenAndServe()
}

func splitOrigins(s string) []string {
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
