package api

import (
	"context"
	"fmt"

	"github.com/JaimeStill/warden/internal/accounts"
	"github.com/JaimeStill/warden/internal/analysis"
	"github.com/JaimeStill/warden/internal/analysis/cloud"
	"github.com/JaimeStill/warden/internal/analysis/local"
	"github.com/JaimeStill/warden/internal/broadcast"
	"github.com/JaimeStill/warden/internal/frames"
	"github.com/JaimeStill/warden/internal/moderation"
	"github.com/JaimeStill/warden/internal/quota"
	"github.com/JaimeStill/warden/internal/videos"
	"github.com/JaimeStill/warden/pkg/lifecycle"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Videos     videos.System
	Accounts   accounts.System
	Quota      *quota.Governor
	Local      *local.Analyzer
	Cloud      *cloud.Analyzer
	Analyzers  *analysis.Registry
	Broadcast  *broadcast.Broadcaster
	MQTT       *broadcast.MQTTSink
	Moderation *moderation.Orchestrator
}

// NewDomain creates all domain systems from the API runtime. The cloud
// analyzer and the MQTT sink are built only when enabled.
func NewDomain(ctx context.Context, runtime *Runtime) (*Domain, error) {
	db := runtime.Database.Connection()

	videosSystem := videos.New(db, runtime.Storage, runtime.Logger, runtime.Pagination)
	accountsSystem := accounts.New(db, runtime.Analysis.QuotaCapacity, runtime.Logger)
	governor := quota.New(accountsSystem, runtime.Analysis.QuotaCapacity, runtime.Logger)

	localAnalyzer := newLocalAnalyzer(runtime)

	var (
		cloudAnalyzer *cloud.Analyzer
		registered    analysis.Analyzer
	)
	if runtime.Analysis.Cloud.Enabled {
		a, err := cloud.New(ctx, &runtime.Analysis.Cloud, runtime.Logger)
		if err != nil {
			return nil, fmt.Errorf("cloud analyzer init failed: %w", err)
		}
		cloudAnalyzer, registered = a, a
	}

	var (
		sink *broadcast.MQTTSink
		opts []broadcast.Option
	)
	if runtime.Broadcast.MQTT.Enabled {
		sink = broadcast.NewMQTTSink(&runtime.Broadcast.MQTT, runtime.Logger)
		opts = append(opts, broadcast.WithSink(sink))
	}
	broadcaster := broadcast.New(&runtime.Broadcast, runtime.Logger, opts...)

	registry := analysis.NewRegistry(localAnalyzer, registered)

	orchestrator := moderation.New(&moderation.Runtime{
		Videos:    videosSystem,
		Accounts:  accountsSystem,
		Quota:     governor,
		Analyzers: registry,
		Media:     runtime.Media,
		Storage:   runtime.Storage,
		Broadcast: broadcaster,
		Logger:    runtime.Logger,
	})

	return &Domain{
		Videos:     videosSystem,
		Accounts:   accountsSystem,
		Quota:      governor,
		Local:      localAnalyzer,
		Cloud:      cloudAnalyzer,
		Analyzers:  registry,
		Broadcast:  broadcaster,
		MQTT:       sink,
		Moderation: orchestrator,
	}, nil
}

// Start registers the lifecycle hooks of every long-lived domain system.
func (d *Domain) Start(lc *lifecycle.Coordinator) error {
	if err := d.Local.Start(lc); err != nil {
		return fmt.Errorf("local analyzer start failed: %w", err)
	}
	if d.Cloud != nil {
		if err := d.Cloud.Start(lc); err != nil {
			return fmt.Errorf("cloud analyzer start failed: %w", err)
		}
	}
	if d.MQTT != nil {
		if err := d.MQTT.Start(lc); err != nil {
			return fmt.Errorf("mqtt start failed: %w", err)
		}
	}
	if err := d.Broadcast.Start(lc); err != nil {
		return fmt.Errorf("broadcast start failed: %w", err)
	}
	d.Moderation.Register(lc)
	return nil
}

func newLocalAnalyzer(runtime *Runtime) *local.Analyzer {
	vision := local.NewVisionDetector(runtime.Agent)
	sampler := frames.NewSampler(runtime.Media, runtime.Analysis.FrameDir)

	return local.New(
		sampler, vision, vision, runtime.Logger,
		local.WithRate(runtime.Analysis.SampleRate),
		local.WithToolCheck(runtime.Media),
		local.WithDedup(runtime.Analysis.Dedup),
	)
}
