// cmd/pulse-agent/main.go
//
// pulse-agent is the agent-side CLI for the pulse liveness registry. It
// manages an encrypted Ed25519 identity, enrolls it with a pulsed node, and
// sends signed heartbeat, stake, and unstake operations.
//
// Usage:
//
//	pulse-agent setup [--label "my-agent"]
//	pulse-agent enroll [--node http://localhost:8080]
//	pulse-agent pulse --amount 1000000000
//	pulse-agent stake --amount 5000000000
//	pulse-agent unstake --amount 5000000000
//	pulse-agent status
//	pulse-agent run --amount 1000000000 [--interval 21h]
package main

import (
	"bytes"
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/agent-pulse/pulsed/internal/agent"
	"github.com/agent-pulse/pulsed/internal/keystore"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "setup":
		cmdSetup(os.Args[2:])
	case "enroll":
		cmdEnroll(os.Args[2:])
	case "pulse":
		cmdPulse(os.Args[2:])
	case "stake":
		cmdStake(os.Args[2:])
	case "unstake":
		cmdUnstake(os.Args[2:])
	case "status":
		cmdStatus(os.Args[2:])
	case "run":
		cmdRun(os.Args[2:])
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: pulse-agent <command> [flags]

Commands:
  setup     Generate an encrypted agent identity
  enroll    Register the identity's public key with a pulsed node
  pulse     Send a signed heartbeat
  stake     Lock funds in registry custody
  unstake   Withdraw unlocked stake
  status    Show the agent's liveness record
  run       Pulse on a fixed interval until interrupted

Run 'pulse-agent <command> --help' for details on each command.
Set PULSE_PASSPHRASE to avoid the --passphrase flag.
`)
}

// resolveDataDir returns the data directory, using the explicit path if
// provided, otherwise defaulting to ~/.pulse/agent.
func resolveDataDir(explicit string) string {
	if explicit != "" {
		return explicit
	}
	home, err := os.UserHomeDir()
	if err != nil {
		log.Fatalf("Cannot determine home directory: %v", err)
	}
	return filepath.Join(home, ".pulse", "agent")
}

// ensureDataDir creates the data directory if it does not exist and returns the path.
func ensureDataDir(explicit string) string {
	dir := resolveDataDir(explicit)
	if err := os.MkdirAll(dir, 0700); err != nil {
		log.Fatalf("Create data directory: %v", err)
	}
	return dir
}

func keystorePath(dir string) string {
	return filepath.Join(dir, "agent.json")
}

func resolvePassphrase(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv("PULSE_PASSPHRASE"); env != "" {
		return env
	}
	log.Fatal("Passphrase required: pass --passphrase or set PULSE_PASSPHRASE")
	return ""
}

// loadIdentity opens the encrypted keystore and returns the agent's address
// and signing key.
func loadIdentity(dataDir, passphrase string) (string, ed25519.PrivateKey) {
	path := keystorePath(resolveDataDir(dataDir))
	f, err := keystore.Load(path)
	if err != nil {
		log.Fatalf("Load keystore %s: %v (run 'pulse-agent setup' first)", path, err)
	}
	priv, err := keystore.Open(f, passphrase)
	if err != nil {
		log.Fatalf("Unlock keystore: %v", err)
	}
	return f.Address, priv
}

func cmdSetup(args []string) {
	fs := flag.NewFlagSet("setup", flag.ExitOnError)
	dataDir := fs.String("data-dir", "", "data directory (default ~/.pulse/agent)")
	passphrase := fs.String("passphrase", "", "keystore passphrase")
	fs.Parse(args)

	dir := ensureDataDir(*dataDir)
	path := keystorePath(dir)
	if _, err := os.Stat(path); err == nil {
		log.Fatalf("Keystore already exists at %s", path)
	}

	pub, priv, err := agent.GenerateKey()
	if err != nil {
		log.Fatalf("Generate key: %v", err)
	}
	address := agent.AddressFromPublicKey(pub)

	f, err := keystore.Seal(priv, address, resolvePassphrase(*passphrase))
	if err != nil {
		log.Fatalf("Seal keystore: %v", err)
	}
	if err := keystore.Save(path, f); err != nil {
		log.Fatalf("Save keystore: %v", err)
	}

	fmt.Printf("Identity created.\n  Address:  %s\n  Keystore: %s\n", address, path)
}

func cmdEnroll(args []string) {
	fs := flag.NewFlagSet("enroll", flag.ExitOnError)
	node := fs.String("node", "http://localhost:8080", "pulsed node base URL")
	label := fs.String("label", "", "human-readable agent label")
	dataDir := fs.String("data-dir", "", "data directory (default ~/.pulse/agent)")
	passphrase := fs.String("passphrase", "", "keystore passphrase")
	fs.Parse(args)

	address, priv := loadIdentity(*dataDir, resolvePassphrase(*passphrase))
	pub := priv.Public().(ed25519.PublicKey)

	body, _ := json.Marshal(map[string]string{
		"public_key": hex.EncodeToString(pub),
		"label":      *label,
	})
	resp := postSigned(*node, "/api/v2/enroll", body, address, priv)
	fmt.Printf("Enrolled %s\n%s\n", address, resp)
}

func cmdPulse(args []string) {
	address, priv, node, amount := amountCommand("pulse", args)
	resp := postSigned(node, "/api/v2/pulse", amountBody(amount), address, priv)
	fmt.Println(resp)
}

func cmdStake(args []string) {
	address, priv, node, amount := amountCommand("stake", args)
	resp := postSigned(node, "/api/v2/stake", amountBody(amount), address, priv)
	fmt.Println(resp)
}

func cmdUnstake(args []string) {
	address, priv, node, amount := amountCommand("unstake", args)
	resp := postSigned(node, "/api/v2/unstake", amountBody(amount), address, priv)
	fmt.Println(resp)
}

// amountCommand parses the flags shared by pulse, stake, and unstake.
func amountCommand(name string, args []string) (string, ed25519.PrivateKey, string, uint64) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	node := fs.String("node", "http://localhost:8080", "pulsed node base URL")
	amount := fs.Uint64("amount", 0, "amount in base units (1e9 base units = 1 unit)")
	dataDir := fs.String("data-dir", "", "data directory (default ~/.pulse/agent)")
	passphrase := fs.String("passphrase", "", "keystore passphrase")
	fs.Parse(args)

	if *amount == 0 {
		log.Fatalf("--amount is required and must be nonzero")
	}

	address, priv := loadIdentity(*dataDir, resolvePassphrase(*passphrase))
	return address, priv, *node, *amount
}

func amountBody(amount uint64) []byte {
	body, _ := json.Marshal(map[string]uint64{"amount": amount})
	return body
}

func cmdStatus(args []string) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	node := fs.String("node", "http://localhost:8080", "pulsed node base URL")
	dataDir := fs.String("data-dir", "", "data directory (default ~/.pulse/agent)")
	address := fs.String("address", "", "query a different agent's address")
	fs.Parse(args)

	addr := *address
	if addr == "" {
		path := keystorePath(resolveDataDir(*dataDir))
		f, err := keystore.Load(path)
		if err != nil {
			log.Fatalf("Load keystore %s: %v (pass --address to query without one)", path, err)
		}
		addr = f.Address
	}

	resp, err := http.Get(*node + "/api/v2/agent/" + addr + "/status")
	if err != nil {
		log.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	fmt.Println(string(out))
}

// cmdRun pulses on a fixed interval until interrupted. The interval should be
// under 24 hours so daily streaks keep advancing after clock drift.
func cmdRun(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	node := fs.String("node", "http://localhost:8080", "pulsed node base URL")
	amount := fs.Uint64("amount", 0, "amount in base units per heartbeat")
	interval := fs.Duration("interval", 21*time.Hour, "time between heartbeats")
	dataDir := fs.String("data-dir", "", "data directory (default ~/.pulse/agent)")
	passphrase := fs.String("passphrase", "", "keystore passphrase")
	fs.Parse(args)

	if *amount == 0 {
		log.Fatalf("--amount is required and must be nonzero")
	}

	address, priv := loadIdentity(*dataDir, resolvePassphrase(*passphrase))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	pulseOnce := func() {
		resp, err := trySigned(*node, "/api/v2/pulse", amountBody(*amount), address, priv)
		if err != nil {
			log.Printf("pulse failed: %v", err)
			return
		}
		log.Printf("pulse: %s", resp)
	}

	log.Printf("Pulsing as %s every %s", address, *interval)
	pulseOnce()
	for {
		select {
		case <-sigCh:
			log.Println("Stopping.")
			return
		case <-ticker.C:
			pulseOnce()
		}
	}
}

// postSigned sends a signed POST to the node and exits with the server's
// error message on failure.
func postSigned(node, path string, body []byte, address string, priv ed25519.PrivateKey) string {
	out, err := trySigned(node, path, body, address, priv)
	if err != nil {
		log.Fatal(err)
	}
	return out
}

// trySigned is postSigned without the fatal exit, for long-running loops
// that should survive transient node errors.
func trySigned(node, path string, body []byte, address string, priv ed25519.PrivateKey) (string, error) {
	req, err := http.NewRequest(http.MethodPost, node+path, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	agent.SignRequest(req, address, priv, body)

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	out, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("server returned %d: %s", resp.StatusCode, bytes.TrimSpace(out))
	}
	return string(bytes.TrimSpace(out)), nil
}
