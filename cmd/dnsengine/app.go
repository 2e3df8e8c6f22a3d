package main

import (
	"strings"

	"github.com/dean-jl/dnsengine/internal/config"
	"github.com/dean-jl/dnsengine/internal/model"
	"github.com/dean-jl/dnsengine/internal/orchestrator"
	"github.com/dean-jl/dnsengine/internal/polling"
	"github.com/dean-jl/dnsengine/internal/propagation"
	"github.com/dean-jl/dnsengine/internal/provider"
	"github.com/dean-jl/dnsengine/internal/resolverpool"
	"github.com/dean-jl/dnsengine/internal/spfresolve"
	"github.com/dean-jl/dnsengine/internal/status"
	"github.com/dean-jl/dnsengine/internal/store"
)

// App wires the engine's components together for a single CLI
// invocation, the way the teacher's flatten/export/import commands
// each build their own provider client from the loaded config.
type App struct {
	Config       *config.Config
	Store        store.Storage
	Orchestrator *orchestrator.Orchestrator
	Scheduler    *polling.Scheduler
	Status       *status.Service
	NewClient    orchestrator.ProviderFactory
}

func newApp() (*App, error) {
	cfg, err := config.LoadConfig(cliConfig.ConfigPath)
	if err != nil {
		return nil, err
	}
	debugPrintlnf("[DEBUG] loaded config from %s\n", cliConfig.ConfigPath)

	st, err := store.NewStorage(cfg.StoreType, cfg.StoreDSN)
	if err != nil {
		return nil, err
	}

	dns := buildDNSResolver(cfg)

	pool := buildResolverPool(cfg)
	checker := propagation.New(resolverpool.New(pool))
	scheduler := polling.New(st, checker)

	newClient := func(apiToken string) *provider.Client {
		var opts []provider.Option
		if cfg.ProviderBaseURL != "" {
			opts = append(opts, provider.WithBaseURL(cfg.ProviderBaseURL))
		}
		if cliConfig.Debug {
			opts = append(opts, provider.WithDebug(true))
		}
		return provider.NewClient(apiToken, opts...)
	}

	orch := orchestrator.New(dns, newClient, st)
	statusSvc := status.New(st)

	return &App{
		Config:       cfg,
		Store:        st,
		Orchestrator: orch,
		Scheduler:    scheduler,
		Status:       statusSvc,
		NewClient:    newClient,
	}, nil
}

func buildDNSResolver(cfg *config.Config) spfresolve.DNSResolver {
	if len(cfg.DNSServers) == 0 {
		verbosePrintln("[VERBOSE] using system DNS resolver")
		return spfresolve.SystemResolver{}
	}

	verbosePrintlnf("[VERBOSE] using %d custom DNS server(s)\n", len(cfg.DNSServers))
	servers := make([]string, 0, len(cfg.DNSServers))
	for _, s := range cfg.DNSServers {
		ip := s.IP
		if !strings.Contains(ip, ":") {
			ip += ":53"
		}
		servers = append(servers, ip)
	}
	return spfresolve.NewCustomResolver(servers)
}

func buildResolverPool(cfg *config.Config) []resolverpool.Server {
	if len(cfg.DNSServers) == 0 {
		return resolverpool.DefaultPool
	}

	pool := make([]resolverpool.Server, 0, len(cfg.DNSServers))
	for _, s := range cfg.DNSServers {
		pool = append(pool, resolverpool.Server{
			IP:       s.IP,
			Provider: model.ServerProvider(strings.ToLower(s.Name)),
		})
	}
	return pool
}
