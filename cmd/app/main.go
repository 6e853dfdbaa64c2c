package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/nanofield/nanofield/internal"
	"github.com/nanofield/nanofield/internal/index"
	"github.com/nanofield/nanofield/internal/mcpserver"
	"github.com/nanofield/nanofield/internal/nanoscope"
	"github.com/nanofield/nanofield/internal/scanservice"
	"github.com/nanofield/nanofield/internal/storage"
	pkgconfig "github.com/nanofield/nanofield/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	configPath := cmd.String("config")
	loaded, err := pkgconfig.LoadIfExists(configPath, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if !loaded && cmd.IsSet("config") {
		return nil, fmt.Errorf("config file not found: %s", configPath)
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

// inspect prints the parsed header metadata of one scan file.
func inspect(_ context.Context, cmd *cli.Command) error {
	path := cmd.Args().Get(0)
	if path == "" {
		return fmt.Errorf("usage: inspect FILE")
	}
	enc, err := nanoscope.EncodingByName(cmd.String("encoding"))
	if err != nil {
		return err
	}

	doc, err := nanoscope.ReadHeader(path, nanoscope.WithEncoding(enc))
	if err != nil {
		return err
	}

	fmt.Printf("file:     %s\n", path)
	if v, ok := doc.Globals["Version"].(string); ok {
		fmt.Printf("version:  %s\n", v)
	}
	if d, ok := doc.Globals["Date"].(string); ok {
		fmt.Printf("date:     %s\n", d)
	}
	fmt.Printf("globals:  %d parameters\n", len(doc.Globals))
	for _, name := range doc.ChannelNames() {
		cfg := doc.Channels[name]
		lines, _ := cfg.IntField("Number of lines")
		samps, _ := cfg.IntField("Samps/line")
		offset, _ := cfg.IntField("Data offset")
		length, _ := cfg.IntField("Data length")
		fmt.Printf("channel:  %-10s %d×%d  (%d bytes at offset %d)\n",
			name, lines, samps, length, offset)
	}
	return nil
}

// export decodes one channel and writes it as CSV, raw or leveled.
func export(_ context.Context, cmd *cli.Command) error {
	path, channel := cmd.Args().Get(0), cmd.Args().Get(1)
	if path == "" || channel == "" {
		return fmt.Errorf("usage: export FILE CHANNEL")
	}
	enc, err := nanoscope.EncodingByName(cmd.String("encoding"))
	if err != nil {
		return err
	}

	doc, err := nanoscope.ReadHeader(path, nanoscope.WithEncoding(enc))
	if err != nil {
		return err
	}
	grid, err := doc.DecodeChannel(channel)
	if err != nil {
		return err
	}

	out := os.Stdout
	if name := cmd.String("out"); name != "" {
		f, err := os.Create(name)
		if err != nil {
			return fmt.Errorf("create %s: %w", name, err)
		}
		defer f.Close()
		out = f
	}

	w := csv.NewWriter(out)
	defer w.Flush()

	flatten := cmd.Bool("flatten")
	order := int(cmd.Int("order"))
	record := make([]string, grid.Cols)
	for r := 0; r < grid.Rows; r++ {
		if flatten {
			row, err := nanoscope.FlattenRow(grid.Row(r), order)
			if err != nil {
				return err
			}
			for c, v := range row {
				record[c] = strconv.FormatFloat(v, 'g', -1, 64)
			}
		} else {
			for c, v := range grid.Row(r) {
				record[c] = strconv.FormatInt(int64(v), 10)
			}
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}

// serveMCP runs the MCP stdio server against the configured catalog.
func serveMCP(_ context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	enc, err := nanoscope.EncodingByName(cfg.Scans.Encoding)
	if err != nil {
		return err
	}
	store, err := storage.NewFS(cfg.Scans.Path, cfg.Scans.Extensions)
	if err != nil {
		return err
	}
	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	if err := index.Sync(db, store, enc, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	svc := scanservice.NewService(store, db, enc)
	return mcpserver.New(svc).ServeStdio()
}

func main() {
	configFlag := &cli.StringFlag{
		Name:        "config",
		Aliases:     []string{"c"},
		Usage:       "Path to config file",
		DefaultText: "config/config.yaml",
		Value:       "config/config.yaml",
		Sources:     cli.EnvVars("APP_CONFIG_FILE"),
	}
	encodingFlag := &cli.StringFlag{
		Name:  "encoding",
		Usage: "Header text encoding (cp1252, latin1, utf-8)",
		Value: "cp1252",
	}

	cmd := &cli.Command{
		Name:   "nanofield",
		Usage:  "Catalog and decode Nanoscope scanning-probe-microscope files",
		Action: serve,
		Flags:  []cli.Flag{configFlag},
		Commands: []*cli.Command{
			{
				Name:      "inspect",
				Usage:     "Print the parsed header metadata of a scan file",
				ArgsUsage: "FILE",
				Action:    inspect,
				Flags:     []cli.Flag{encodingFlag},
			},
			{
				Name:      "export",
				Usage:     "Decode one channel of a scan file to CSV",
				ArgsUsage: "FILE CHANNEL",
				Action:    export,
				Flags: []cli.Flag{
					encodingFlag,
					&cli.StringFlag{
						Name:  "out",
						Usage: "Output file (default stdout)",
					},
					&cli.BoolFlag{
						Name:  "flatten",
						Usage: "Apply per-row scanline leveling",
					},
					&cli.IntFlag{
						Name:  "order",
						Usage: "Polynomial order for leveling",
						Value: 1,
					},
				},
			},
			{
				Name:   "mcp",
				Usage:  "Serve catalog tools over the Model Context Protocol (stdio)",
				Action: serveMCP,
				Flags:  []cli.Flag{configFlag},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
