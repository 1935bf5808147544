// Package bot assembles the ticket collection bot from its parts:
// configuration, the field schema, the conversation flow and the
// Bitrix24 submission client.
package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/maxkalashnikow/telegramtobitrixsupportbot/core/bootstrap"
	"github.com/maxkalashnikow/telegramtobitrixsupportbot/core/cmd"
	coreconfig "github.com/maxkalashnikow/telegramtobitrixsupportbot/core/config"
	coretelegram "github.com/maxkalashnikow/telegramtobitrixsupportbot/core/telegram"
	"github.com/maxkalashnikow/telegramtobitrixsupportbot/core/telegram/commands"
	"github.com/maxkalashnikow/telegramtobitrixsupportbot/core/telegram/router"
	"github.com/maxkalashnikow/telegramtobitrixsupportbot/internal/bitrix"
	"github.com/maxkalashnikow/telegramtobitrixsupportbot/internal/ticket"
)

type carrier struct {
	cfg *coreconfig.Config
}

func (c carrier) CoreConfig() *coreconfig.Config {
	return c.cfg
}

// LoadConfig reads and validates the bot configuration.
func LoadConfig(path string) (cmd.ConfigCarrier, error) {
	cfg, err := coreconfig.Load(path)
	if err != nil {
		return nil, err
	}
	return carrier{cfg: cfg}, nil
}

// App holds the wired bot components.
type App struct {
	cfg     *coreconfig.Config
	db      *sqlx.DB
	schema  *ticket.Schema
	store   *ticket.Store
	machine *ticket.Machine
}

// Bootstrap initializes infrastructure and wires the ticket flow.
func Bootstrap(c cmd.ConfigCarrier) (cmd.TelegramApp, error) {
	cfg := c.CoreConfig()

	res, err := bootstrap.Run(bootstrap.Options{Config: cfg})
	if err != nil {
		return nil, err
	}

	schema, err := loadSchema(cfg)
	if err != nil {
		return nil, err
	}

	client, err := bitrix.NewClient(
		cfg.Bitrix.WebhookURL,
		cfg.Bitrix.EntityTypeID,
		bitrix.WithTimeout(time.Duration(cfg.Bitrix.TimeoutSeconds)*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("bot: bitrix client: %w", err)
	}

	store := ticket.NewStore()

	var archive ticket.Archive
	if res.DB != nil {
		archive = ticket.NewSQLArchive(res.DB)
	}

	submitter := ticket.NewSubmitter(client, schema, store, archive, cfg.Tickets.TitlePrefix)
	machine := ticket.NewMachine(schema, store, submitter)

	return &App{
		cfg:     cfg,
		db:      res.DB,
		schema:  schema,
		store:   store,
		machine: machine,
	}, nil
}

func loadSchema(cfg *coreconfig.Config) (*ticket.Schema, error) {
	if cfg.Tickets.FieldsFile != "" {
		schema, err := ticket.LoadSchema(cfg.Tickets.FieldsFile)
		if err != nil {
			return nil, fmt.Errorf("bot: load fields file: %w", err)
		}
		return schema, nil
	}
	return ticket.DefaultSchema(), nil
}

// CoreConfig implements cmd.ConfigCarrier.
func (a *App) CoreConfig() *coreconfig.Config {
	return a.cfg
}

// TelegramRunOptions implements cmd.TelegramApp.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	reg := coretelegram.NewRegistry()
	reg.RegisterCommand("/start", commands.Command{
		Handler:     a.handleStart,
		Description: "Приветствие и справка",
	})
	reg.RegisterCommand("/new", commands.Command{
		Handler:     a.handleNew,
		Description: "Создать новую заявку",
		Aliases:     []string{"ticket"},
	})
	reg.SetTextFallback(a.handleUnknownText)

	conv := &conversation{machine: a.machine, store: a.store}

	routes := router.CommandRoutes(reg)
	routes = append(routes, router.MessageRoutes(conv, reg, router.MessageOptions{
		UnknownAttachment: a.handleUnknownText,
	})...)

	return coretelegram.RunOptions{
		Config:      a.cfg,
		Registry:    reg,
		Middlewares: coretelegram.DefaultMiddlewares(a.cfg, nil),
		Routes:      routes,
		OnStop: func(ctx context.Context, rt coretelegram.Runtime) error {
			if a.db != nil {
				return a.db.Close()
			}
			return nil
		},
	}, nil
}
