// say is a command-line client for the PopDraft TTS server: reads text from
// arguments or stdin and has the server speak it or save it to a WAV file.
//
// Usage:
//
//	echo "Hello world" | say
//	say -voice bf_emma -speed 1.2 "Hello world"
//	say -o out.wav "Hello world"
package main

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bachner/popdraft/config"
)

func main() {
	serverURL := flag.String("server", config.DefaultTTSURL, "TTS server base URL")
	voice := flag.String("voice", config.DefaultTTSVoice, "voice preset")
	speed := flag.Float64("speed", config.DefaultTTSSpeed, "speech speed multiplier")
	output := flag.String("o", "", "save WAV to file instead of playing")
	flag.Parse()

	text := strings.Join(flag.Args(), " ")
	if text == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "say: read stdin: %v\n", err)
			os.Exit(1)
		}
		text = strings.TrimSpace(string(data))
	}
	if text == "" {
		fmt.Fprintln(os.Stderr, "say: no text provided (pass as argument or pipe via stdin)")
		os.Exit(1)
	}

	if err := speak(*serverURL, text, *voice, *speed, *output); err != nil {
		fmt.Fprintf(os.Stderr, "say: %v\n", err)
		fmt.Fprintln(os.Stderr, "Is the TTS server running?")
		os.Exit(1)
	}
}

func speak(server, text, voice string, speed float64, output string) error {
	params := url.Values{}
	params.Set("text", text)
	params.Set("voice", voice)
	params.Set("speed", strconv.FormatFloat(speed, 'f', -1, 64))
	if output != "" {
		params.Set("play", "0")
	} else {
		params.Set("play", "1")
	}

	client := &http.Client{Timeout: 120 * time.Second}
	resp, err := client.Get(strings.TrimRight(server, "/") + "/speak?" + params.Encode())
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if output == "" {
		return nil
	}

	// With play=0 the server replies with the path of the generated temp
	// file on its own filesystem; it runs locally, so copy it over.
	tmpPath := strings.TrimSpace(string(body))
	data, err := os.ReadFile(tmpPath)
	if err != nil {
		return fmt.Errorf("read generated audio %s: %w", tmpPath, err)
	}
	if err := os.WriteFile(output, data, 0644); err != nil {
		return err
	}
	_ = os.Remove(tmpPath)
	fmt.Printf("Audio saved to: %s\n", output)
	return nil
}
