package main

import "github.com/urfave/cli/v2"

const (
	accountFlagName = "account"
	amountFlagName  = "amount"
	ownerFlagName   = "owner"
	fromFlagName    = "from"
	toFlagName      = "to"
	dnaFlagName     = "dna"
	parentAFlagName = "parent-a"
	parentBFlagName = "parent-b"
	priceFlagName   = "price"
	buyerFlagName   = "buyer"
	bidFlagName     = "bid"
)

var (
	accountFlag = &cli.StringFlag{
		Name:     accountFlagName,
		Usage:    "account identifier",
		Required: true,
	}
	amountFlag = &cli.Uint64Flag{
		Name:     amountFlagName,
		Usage:    "amount to deposit",
		Required: true,
	}
	ownerFlag = &cli.StringFlag{
		Name:     ownerFlagName,
		Usage:    "owning account",
		Required: true,
	}
	fromFlag = &cli.StringFlag{
		Name:     fromFlagName,
		Usage:    "sending account",
		Required: true,
	}
	toFlag = &cli.StringFlag{
		Name:     toFlagName,
		Usage:    "receiving account",
		Required: true,
	}
	dnaFlag = &cli.StringFlag{
		Name:     dnaFlagName,
		Usage:    "unit identifier (32 hex chars)",
		Required: true,
	}
	parentAFlag = &cli.StringFlag{
		Name:     parentAFlagName,
		Usage:    "first parent identifier",
		Required: true,
	}
	parentBFlag = &cli.StringFlag{
		Name:     parentBFlagName,
		Usage:    "second parent identifier",
		Required: true,
	}
	priceFlag = &cli.Uint64Flag{
		Name:     priceFlagName,
		Usage:    "listed price, 0 delists the unit",
		Required: true,
	}
	buyerFlag = &cli.StringFlag{
		Name:     buyerFlagName,
		Usage:    "buying account",
		Required: true,
	}
	bidFlag = &cli.Uint64Flag{
		Name:     bidFlagName,
		Usage:    "bid, must meet the listed price",
		Required: true,
	}
)
