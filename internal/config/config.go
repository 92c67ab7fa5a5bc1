package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"
)

type supportedType map[string]struct{}

func (t supportedType) String() string {
	types := make([]string, 0, len(t))
	for tt := range t {
		types = append(types, tt)
	}
	return fmt.Sprintf("%v", types)
}

func (t supportedType) supports(typeStr string) bool {
	_, ok := t[typeStr]
	return ok
}

var supportedDbs = supportedType{
	"badger": {},
	"sqlite": {},
}

type Config struct {
	Datadir  string
	LogLevel int

	DbType string
	DbDir  string

	// lifecycle parameters, fixed for the lifetime of the registry
	UnitPrice uint64
	MaxOwned  uint32
	MaxTotal  uint32
}

var (
	Datadir = cli.StringFlag{
		Name:    "datadir",
		Usage:   "directory to store registry data",
		Value:   defaultDatadir(),
		EnvVars: []string{"BROODD_DATADIR"},
	}
	LogLevel = cli.IntFlag{
		Name:    "log-level",
		Usage:   "logging level: 4 = info, 5 = debug, 6 = trace",
		Value:   4,
		EnvVars: []string{"BROODD_LOG_LEVEL"},
	}
	DbType = cli.StringFlag{
		Name:    "db-type",
		Usage:   "type of data store to use, either badger or sqlite",
		Value:   "badger",
		EnvVars: []string{"BROODD_DB_TYPE"},
	}
	UnitPrice = cli.Uint64Flag{
		Name:    "unit-price",
		Usage:   "price charged and reserved when minting or breeding a unit",
		Value:   50,
		EnvVars: []string{"BROODD_UNIT_PRICE"},
	}
	MaxOwned = cli.UintFlag{
		Name:    "max-owned",
		Usage:   "maximum number of units one account may own",
		Value:   100,
		EnvVars: []string{"BROODD_MAX_OWNED"},
	}
	MaxTotal = cli.UintFlag{
		Name:    "max-total",
		Usage:   "maximum number of units the registry may hold",
		Value:   1_000_000,
		EnvVars: []string{"BROODD_MAX_TOTAL"},
	}
)

var Flags = []cli.Flag{
	&Datadir,
	&LogLevel,
	&DbType,
	&UnitPrice,
	&MaxOwned,
	&MaxTotal,
}

func LoadConfig(c *cli.Context) (*Config, error) {
	if err := initDatadir(c); err != nil {
		return nil, fmt.Errorf("failed to create datadir: %s", err)
	}

	dbType := c.String(DbType.Name)
	if !supportedDbs.supports(dbType) {
		return nil, fmt.Errorf(
			"db type not supported, please select one of: %s", supportedDbs,
		)
	}

	unitPrice := c.Uint64(UnitPrice.Name)
	if unitPrice == 0 {
		return nil, fmt.Errorf("unit price must be greater than 0")
	}
	maxOwned := c.Uint(MaxOwned.Name)
	maxTotal := c.Uint(MaxTotal.Name)
	if maxOwned == 0 || maxTotal == 0 {
		return nil, fmt.Errorf("capacity bounds must be greater than 0")
	}

	return &Config{
		Datadir:   c.String(Datadir.Name),
		LogLevel:  c.Int(LogLevel.Name),
		DbType:    dbType,
		DbDir:     filepath.Join(c.String(Datadir.Name), "db"),
		UnitPrice: unitPrice,
		MaxOwned:  uint32(maxOwned),
		MaxTotal:  uint32(maxTotal),
	}, nil
}

func initDatadir(c *cli.Context) error {
	datadir := c.String(Datadir.Name)
	return makeDirectoryIfNotExists(filepath.Join(datadir, "db"))
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}

func defaultDatadir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".broodd"
	}
	return filepath.Join(home, ".broodd")
}
