package main

import (
	"context"
	"crypto/rand"
	"flag"
	"fmt"
	"os"
	"time"

	"VRFOracle/client"
	"VRFOracle/internal/keyfile"
	"VRFOracle/internal/oracle"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// run requests randomness for a seed and prints the result once fulfilled.
func run(args []string) error {
	fs := flag.NewFlagSet("request", flag.ContinueOnError)

	node := fs.String("node", "http://localhost:8080", "Oracle node URL")
	keyPath := fs.String("key", "", "Ed25519 key path (ephemeral if empty)")
	seedHex := fs.String("seed", "", "Hex seed (random if empty)")
	timeout := fs.Duration("timeout", 2*time.Minute, "Time to wait for fulfillment")
	interval := fs.Duration("interval", time.Second, "Polling interval")

	if err := fs.Parse(args); err != nil {
		return err
	}

	key, err := keyfile.LoadOrGenerate(*keyPath)
	if err != nil {
		return fmt.Errorf("load key:\n%w", err)
	}

	var seed oracle.Seed
	if *seedHex != "" {
		if seed, err = oracle.ParseSeed(*seedHex); err != nil {
			return err
		}
	} else if _, err := rand.Read(seed[:]); err != nil {
		return fmt.Errorf("generate seed:\n%w", err)
	}

	c := client.New(*node, client.WithWallet(client.WalletFromKey(key)))

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	num, asset, err := c.RequestWithDefaultAsset(ctx, seed)
	if err != nil {
		return fmt.Errorf("request:\n%w", err)
	}

	fmt.Printf("requested seed=%s num=%d asset=%s\n", seed, num, asset)

	rec, err := c.WaitFulfilled(ctx, seed, *interval)
	if err != nil {
		return fmt.Errorf("wait:\n%w", err)
	}

	fmt.Printf("randomness=%s\n", rec.Value)

	for _, contrib := range rec.Contributions {
		fmt.Printf("  slot %d %s\n", contrib.Slot, contrib.Authority)
	}

	return nil
}
