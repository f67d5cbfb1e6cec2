package main

import (
	"context"
	"flag"
	"log"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/snapwallet/dexswap/config"
	"github.com/snapwallet/dexswap/contracts"
	"github.com/snapwallet/dexswap/swap"
	"github.com/snapwallet/dexswap/wallet"
)

func main() {
	configPath := flag.String("config", "config.json", "path to config file")
	fromToken := flag.String("from", "", "input token symbol or address")
	toToken := flag.String("to", "", "output token symbol or address")
	amountStr := flag.String("amount", "", "input amount in the token's smallest unit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	amount, ok := new(big.Int).SetString(*amountStr, 10)
	if !ok || amount.Sign() <= 0 {
		log.Fatalf("Invalid -amount %q", *amountStr)
	}

	tokenIn, err := cfg.TokenAddress(*fromToken)
	if err != nil {
		log.Fatalf("Invalid -from token: %v", err)
	}
	tokenOut, err := cfg.TokenAddress(*toToken)
	if err != nil {
		log.Fatalf("Invalid -to token: %v", err)
	}

	router, err := contracts.ParseAddress(cfg.RouterAddress)
	if err != nil {
		log.Fatalf("Invalid router address: %v", err)
	}
	factory, err := contracts.ParseAddress(cfg.FactoryAddress)
	if err != nil {
		log.Fatalf("Invalid factory address: %v", err)
	}
	registry, err := contracts.NewRegistry(router, factory)
	if err != nil {
		log.Fatalf("Failed to build contract registry: %v", err)
	}

	client, err := ethclient.Dial(cfg.RPCEndpoint)
	if err != nil {
		log.Fatalf("Failed to connect to RPC at %s: %v", cfg.RPCEndpoint, err)
	}
	defer client.Close()
	log.Printf("Connected to %s", cfg.RPCEndpoint)

	entropy, err := wallet.EntropyFromMnemonic(cfg.Mnemonic)
	if err != nil {
		log.Fatalf("Failed to build entropy handle: %v", err)
	}

	signer, err := wallet.DeriveSigner(entropy, 0)
	if err != nil {
		log.Fatalf("Failed to derive signer: %v", err)
	}
	log.Printf("Swapping as %s", signer.Address.Hex())

	ctx := context.Background()
	executor := swap.NewExecutor(client, big.NewInt(cfg.ChainID), registry, cfg.ConfirmTimeout())

	minOut, err := executor.MinOutput(ctx, amount, []common.Address{tokenIn, tokenOut}, cfg.SlippageBps)
	if err != nil {
		log.Fatalf("Failed to quote minimum output: %v", err)
	}

	plan, err := swap.NewPlan(tokenIn, tokenOut, amount, minOut, time.Now(), cfg.DeadlineWindow())
	if err != nil {
		log.Fatalf("Invalid swap plan: %v", err)
	}

	receipts, err := executor.Execute(ctx, signer, plan)
	if err != nil {
		log.Fatalf("Swap failed: %v", err)
	}

	log.Printf("Approval mined: %s", receipts.Approval.TxHash.Hex())
	log.Printf("Swap mined: %s", receipts.Swap.TxHash.Hex())
}
