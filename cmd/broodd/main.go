package main

import (
	"context"
	"fmt"
	"os"

	"github.com/brood-labs/broodd/internal/config"
	"github.com/brood-labs/broodd/internal/core/application"
	"github.com/brood-labs/broodd/internal/core/domain"
	"github.com/brood-labs/broodd/internal/infrastructure/db"
	"github.com/brood-labs/broodd/internal/infrastructure/entropy"
	badgerledger "github.com/brood-labs/broodd/internal/infrastructure/ledger/badger"
	"github.com/brood-labs/broodd/internal/infrastructure/pubsub"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "broodd",
		Usage: "registry of breedable digital units",
		Flags: config.Flags,
		Commands: []*cli.Command{
			fundCmd, balanceCmd, mintCmd, breedCmd, transferCmd,
			setPriceCmd, buyCmd, listCmd, showCmd, countCmd,
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

var fundCmd = &cli.Command{
	Name:  "fund",
	Usage: "deposit free balance on an account",
	Flags: []cli.Flag{accountFlag, amountFlag},
	Action: func(c *cli.Context) error {
		return withStack(c, func(ctx context.Context, s *stack) error {
			account := c.String(accountFlagName)
			amount := c.Uint64(amountFlagName)
			if err := s.ledger.Deposit(account, amount); err != nil {
				return err
			}
			free, reserved, err := s.ledger.Balances(account)
			if err != nil {
				return err
			}
			fmt.Printf("account %s: free %d, reserved %d\n", account, free, reserved)
			return nil
		})
	},
}

var balanceCmd = &cli.Command{
	Name:  "balance",
	Usage: "show an account's free and reserved balance",
	Flags: []cli.Flag{accountFlag},
	Action: func(c *cli.Context) error {
		return withStack(c, func(ctx context.Context, s *stack) error {
			account := c.String(accountFlagName)
			free, reserved, err := s.ledger.Balances(account)
			if err != nil {
				return err
			}
			fmt.Printf("account %s: free %d, reserved %d\n", account, free, reserved)
			return nil
		})
	},
}

var mintCmd = &cli.Command{
	Name:  "mint",
	Usage: "mint a new unit",
	Flags: []cli.Flag{ownerFlag},
	Action: func(c *cli.Context) error {
		return withStack(c, func(ctx context.Context, s *stack) error {
			unit, err := s.svc.Mint(ctx, c.String(ownerFlagName))
			if err != nil {
				return err
			}
			fmt.Println(unit)
			return nil
		})
	},
}

var breedCmd = &cli.Command{
	Name:  "breed",
	Usage: "breed a new unit from two owned parents",
	Flags: []cli.Flag{ownerFlag, parentAFlag, parentBFlag},
	Action: func(c *cli.Context) error {
		return withStack(c, func(ctx context.Context, s *stack) error {
			parentA, err := parseDNA(c.String(parentAFlagName))
			if err != nil {
				return err
			}
			parentB, err := parseDNA(c.String(parentBFlagName))
			if err != nil {
				return err
			}
			unit, err := s.svc.Breed(ctx, c.String(ownerFlagName), parentA, parentB)
			if err != nil {
				return err
			}
			fmt.Println(unit)
			return nil
		})
	},
}

var transferCmd = &cli.Command{
	Name:  "transfer",
	Usage: "transfer a unit to another account",
	Flags: []cli.Flag{fromFlag, toFlag, dnaFlag},
	Action: func(c *cli.Context) error {
		return withStack(c, func(ctx context.Context, s *stack) error {
			dna, err := parseDNA(c.String(dnaFlagName))
			if err != nil {
				return err
			}
			return s.svc.Transfer(ctx, c.String(fromFlagName), c.String(toFlagName), dna)
		})
	},
}

var setPriceCmd = &cli.Command{
	Name:  "set-price",
	Usage: "update a unit's listed price",
	Flags: []cli.Flag{ownerFlag, dnaFlag, priceFlag},
	Action: func(c *cli.Context) error {
		return withStack(c, func(ctx context.Context, s *stack) error {
			dna, err := parseDNA(c.String(dnaFlagName))
			if err != nil {
				return err
			}
			return s.svc.SetPrice(
				ctx, c.String(ownerFlagName), dna, c.Uint64(priceFlagName),
			)
		})
	},
}

var buyCmd = &cli.Command{
	Name:  "buy",
	Usage: "purchase a listed unit",
	Flags: []cli.Flag{buyerFlag, dnaFlag, bidFlag},
	Action: func(c *cli.Context) error {
		return withStack(c, func(ctx context.Context, s *stack) error {
			dna, err := parseDNA(c.String(dnaFlagName))
			if err != nil {
				return err
			}
			return s.svc.Buy(ctx, c.String(buyerFlagName), dna, c.Uint64(bidFlagName))
		})
	},
}

var listCmd = &cli.Command{
	Name:  "list",
	Usage: "list units owned by an account",
	Flags: []cli.Flag{ownerFlag},
	Action: func(c *cli.Context) error {
		return withStack(c, func(ctx context.Context, s *stack) error {
			units, err := s.svc.OwnedUnits(ctx, c.String(ownerFlagName))
			if err != nil {
				return err
			}
			for _, unit := range units {
				fmt.Println(unit)
			}
			fmt.Printf("%d unit(s)\n", len(units))
			return nil
		})
	},
}

var showCmd = &cli.Command{
	Name:  "show",
	Usage: "show a unit",
	Flags: []cli.Flag{dnaFlag},
	Action: func(c *cli.Context) error {
		return withStack(c, func(ctx context.Context, s *stack) error {
			dna, err := parseDNA(c.String(dnaFlagName))
			if err != nil {
				return err
			}
			unit, err := s.svc.GetUnit(ctx, dna)
			if err != nil {
				return err
			}
			fmt.Println(unit)
			return nil
		})
	},
}

var countCmd = &cli.Command{
	Name:  "count",
	Usage: "show the total number of units ever created",
	Action: func(c *cli.Context) error {
		return withStack(c, func(ctx context.Context, s *stack) error {
			count, err := s.svc.CountUnits(ctx)
			if err != nil {
				return err
			}
			fmt.Println(count)
			return nil
		})
	},
}

type stack struct {
	svc    application.Service
	ledger *badgerledger.Ledger
}

func withStack(c *cli.Context, fn func(context.Context, *stack) error) error {
	cfg, err := config.LoadConfig(c)
	if err != nil {
		return fmt.Errorf("invalid config: %s", err)
	}
	log.SetLevel(log.Level(cfg.LogLevel))

	var dataStoreConfig []interface{}
	switch cfg.DbType {
	case "badger":
		dataStoreConfig = []interface{}{cfg.DbDir, nil}
	case "sqlite":
		dataStoreConfig = []interface{}{cfg.DbDir}
	}

	repoManager, err := db.NewService(db.ServiceConfig{
		DataStoreType:   cfg.DbType,
		MaxOwned:        cfg.MaxOwned,
		MaxTotal:        cfg.MaxTotal,
		DataStoreConfig: dataStoreConfig,
	})
	if err != nil {
		return fmt.Errorf("failed to open data store: %s", err)
	}

	ledger, err := badgerledger.NewReserveLedger(cfg.Datadir, nil)
	if err != nil {
		repoManager.Close()
		return fmt.Errorf("failed to open ledger: %s", err)
	}
	defer ledger.Close()

	ps := pubsub.NewPubSub()

	svc, err := application.NewService(
		repoManager, ledger, entropy.NewCryptoSource(), entropy.NewSequencer(), ps,
		cfg.UnitPrice, cfg.MaxOwned, cfg.MaxTotal,
	)
	if err != nil {
		repoManager.Close()
		return fmt.Errorf("failed to create service: %s", err)
	}
	defer svc.Stop()

	ctx := c.Context
	events, err := ps.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("failed to subscribe to events: %s", err)
	}
	go func() {
		for msg := range events {
			log.WithField("kind", pubsub.EventKind(msg)).
				WithField("payload", string(msg.Payload)).Info("event")
			msg.Ack()
		}
	}()

	return fn(ctx, &stack{svc: svc, ledger: ledger})
}

func parseDNA(s string) (domain.DNA, error) {
	var dna domain.DNA
	if err := dna.FromString(s); err != nil {
		return domain.DNA{}, err
	}
	return dna, nil
}
