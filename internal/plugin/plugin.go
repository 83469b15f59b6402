// Package plugin wires the shout registry, the cast and assignment handlers
// and the cosave store to a game host.
package plugin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/panic-sell/equip-spells-as-shouts/internal/config"
	"github.com/panic-sell/equip-spells-as-shouts/internal/handlers"
	"github.com/panic-sell/equip-spells-as-shouts/internal/logger"
	"github.com/panic-sell/equip-spells-as-shouts/pkg/form"
	"github.com/panic-sell/equip-spells-as-shouts/pkg/host"
	"github.com/panic-sell/equip-spells-as-shouts/pkg/shoutmap"
	"github.com/panic-sell/equip-spells-as-shouts/pkg/storage"
)

// UniqueID identifies this plugin's records in a cosave.
var UniqueID = form.MakeTag("ESAS")

// Host is everything the plugin needs from the running game.
type Host struct {
	Engine   host.Engine
	Events   host.EventSource
	Forms    host.Forms
	Resolver host.Resolver
	Console  host.Console
}

// Service owns the registry and the handlers built on it. It is created at
// startup, initialized once game data is loaded, and then driven by the
// host's save, load and revert callbacks.
type Service struct {
	host     Host
	settings config.Settings
	store    storage.Storage
	plugin   string
	logger   *slog.Logger

	content  *shoutmap.Content
	registry *shoutmap.Registry

	faf    *handlers.FafHandler
	conc   *handlers.ConcState
	assign *handlers.AssignmentHandler
}

// New creates a service. Nothing is registered with the host until
// OnDataLoaded.
func New(h Host, settings config.Settings, store storage.Storage, logger *slog.Logger) *Service {
	return &Service{
		host:     h,
		settings: settings,
		store:    store,
		plugin:   shoutmap.PluginName,
		logger:   logger,
	}
}

// WithPluginName overrides the plugin file the shout records come from.
func (s *Service) WithPluginName(name string) *Service {
	s.plugin = name
	return s
}

// OnDataLoaded discovers the plugin records, builds the registry and
// subscribes the handlers to the host's event streams.
func (s *Service) OnDataLoaded() error {
	if s.registry != nil {
		return errors.New("plugin already initialized")
	}
	if s.host.Engine == nil || s.host.Events == nil || s.host.Forms == nil || s.host.Console == nil {
		return errors.New("host interfaces missing")
	}

	content, err := shoutmap.DiscoverContent(s.host.Forms, s.plugin)
	if err != nil {
		return fmt.Errorf("failed to discover plugin content: %w", err)
	}
	for _, id := range content.MissingShouts {
		s.logger.Warn("Spell shout record missing from plugin", "plugin", s.plugin, "local_id", id.String())
	}
	granter := &shoutmap.ConsoleGranter{Console: s.host.Console, Content: content}
	layout := shoutmap.ParseLayout(s.settings.ShoutLayout)

	s.content = content
	s.registry = shoutmap.NewRegistry(layout, content, granter, s.logger)

	s.faf = handlers.NewFafHandler(s.host.Engine, s.registry, s.settings.MagickaScaleFaf, s.logger)
	s.conc = handlers.NewConcState(s.logger)
	concCast := handlers.NewConcCastHandler(s.host.Engine, s.registry, s.conc, s.settings.MagickaScaleConc, s.logger)
	concPoll := handlers.NewConcPollHandler(s.host.Engine, s.conc, s.logger)
	s.assign = handlers.NewAssignmentHandler(s.host.Engine, s.registry, handlers.AssignmentConfig{
		Allow2HSpells: s.settings.Allow2HSpells,
		AssignKeys:    s.settings.ConvertSpellKeysets,
		UnassignKeys:  s.settings.RemoveShoutKeysets,
	}, s.logger)

	s.host.Events.AddActionSink(s.faf)
	s.host.Events.AddActionSink(concCast)
	s.host.Events.AddInputSink(concPoll)
	s.host.Events.AddInputSink(s.assign)

	s.logger.Info("Plugin initialized",
		"plugin", s.plugin,
		"layout", layout.String(),
		"faf_shouts", len(content.FafShouts),
		"conc_shouts", len(content.ConcShouts))
	return nil
}

// Registry is nil before OnDataLoaded.
func (s *Service) Registry() *shoutmap.Registry {
	return s.registry
}

// Content is nil before OnDataLoaded.
func (s *Service) Content() *shoutmap.Content {
	return s.content
}

// ConcState exposes the sustained cast session for display.
func (s *Service) ConcState() *handlers.ConcState {
	return s.conc
}

func (s *Service) Settings() config.Settings {
	return s.settings
}

// Records encodes the player's live assignments as cosave records, ordered
// by tag.
func (s *Service) Records() ([]storage.Record, error) {
	if s.registry == nil {
		return nil, errors.New("plugin not initialized")
	}
	player := s.host.Engine.Player()
	if player == nil {
		return nil, errors.New("no player")
	}

	snapshot := s.registry.Snapshot(player)
	records := make([]storage.Record, 0, len(snapshot))
	for tag, ir := range snapshot {
		data, err := shoutmap.Encode(ir)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s record: %w", tag, err)
		}
		records = append(records, storage.Record{Tag: tag, Version: shoutmap.RecordVersion, Data: data})
	}
	return storage.SortRecords(records), nil
}

// OnSave writes the player's live assignments under saveID.
func (s *Service) OnSave(ctx context.Context, saveID uuid.UUID) error {
	records, err := s.Records()
	if err != nil {
		s.logger.Error("Cannot serialize spell shout assignments", "save_id", saveID, "error", err)
		return err
	}
	if err := s.store.SaveRecords(ctx, saveID, records); err != nil {
		s.logger.Error("Cannot write spell shout assignments to cosave", "save_id", saveID, "error", err)
		return fmt.Errorf("failed to save records: %w", err)
	}
	for _, r := range records {
		s.logger.Debug("Spell shout assignments serialized to cosave", "save_id", saveID, "tag", r.Tag.String(), "bytes", len(r.Data))
	}
	return nil
}

// OnLoad replaces the registry with the assignments stored under saveID.
// A save with no records loads as an empty registry. Malformed records are
// skipped; the rest still load. Records sharing a tag replay in store order.
func (s *Service) OnLoad(ctx context.Context, saveID uuid.UUID) (int, error) {
	if s.registry == nil {
		return 0, errors.New("plugin not initialized")
	}
	player := s.host.Engine.Player()
	if player == nil {
		s.logger.Error("No player during cosave load", "save_id", saveID)
		return 0, errors.New("no player")
	}

	records, err := s.store.LoadRecords(ctx, saveID)
	if errors.Is(err, storage.ErrNotFound) {
		s.logger.Debug("No spell shout assignments in cosave", "save_id", saveID)
		s.registry.Reset()
		return 0, nil
	}
	if err != nil {
		logger.WithError(s.logger, err).Error("Cannot read cosave", "save_id", saveID)
		return 0, fmt.Errorf("failed to load records: %w", err)
	}

	irs := s.decodeRecords(records)
	n := s.registry.Restore(player, irs, s.host.Forms, s.plugin)
	s.logger.Info("Spell shout assignments loaded from cosave", "save_id", saveID, "assignments", n)
	return n, nil
}

func (s *Service) decodeRecords(records []storage.Record) map[form.Tag]shoutmap.IR {
	irs := make(map[form.Tag]shoutmap.IR, len(records))
	for _, r := range records {
		if r.Version != shoutmap.RecordVersion {
			s.logger.Warn("Unsupported cosave record version", "tag", r.Tag.String(), "version", r.Version)
			continue
		}
		ir, err := shoutmap.Decode(r.Data)
		if err != nil {
			logger.WithError(s.logger, err).Error("Cannot deserialize spell shout assignments from cosave", "tag", r.Tag.String())
			continue
		}
		if s.host.Resolver != nil {
			ir = shoutmap.Resolve(ir, s.host.Resolver, s.logger)
		}
		if prev, ok := irs[r.Tag]; ok {
			s.logger.Warn("Repeated cosave record, merging", "tag", r.Tag.String())
			ir = append(prev, ir...)
		}
		irs[r.Tag] = ir
	}
	return irs
}

// OnRevert drops every assignment. The host calls it before loading a save
// and when starting a new game.
func (s *Service) OnRevert() {
	if s.registry == nil {
		return
	}
	s.registry.Reset()
	s.logger.Debug("Spell shout assignments reverted")
}
