package server

import (
	"context"
	"fmt"
	"io"
	"os"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"awsops/internal/audit"
	"awsops/internal/cache"
	"awsops/internal/config"
	opsmcp "awsops/internal/mcp"
	"awsops/internal/policy"
	"awsops/internal/redact"
)

type Options struct {
	ConfigPath         string
	Toolsets           []string
	ReadOnly           bool
	DisableDestructive bool
	LogLevel           string
	Version            string
	Stderr             io.Writer
	Transport          sdkmcp.Transport
}

func Run(ctx context.Context, opts Options) error {
	errOut := opts.Stderr
	if errOut == nil {
		errOut = os.Stderr
	}
	configPath := opts.ConfigPath
	if configPath == "" {
		if env := os.Getenv("AWSOPS_CONFIG"); env != "" {
			configPath = env
		}
	}
	overrides := config.Overrides{}
	if len(opts.Toolsets) > 0 {
		overrides.Toolsets = &opts.Toolsets
	}
	if opts.ReadOnly {
		overrides.ReadOnly = &opts.ReadOnly
	}
	if opts.DisableDestructive {
		overrides.DisableDestructive = &opts.DisableDestructive
	}
	if opts.LogLevel != "" {
		overrides.LogLevel = &opts.LogLevel
	}

	cfg, err := config.Load(configPath, "", overrides)
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	store := cache.NewStore()
	toolCtx, reg, err := buildRuntime(cfg, errOut, store)
	if err != nil {
		return fmt.Errorf("init failed: %w", err)
	}
	server := sdkmcp.NewServer(&sdkmcp.Implementation{Name: "awsops", Version: opts.Version}, nil)
	toolNames, err := opsmcp.RegisterSDKTools(server, reg, toolCtx)
	if err != nil {
		return fmt.Errorf("tool registration failed: %w", err)
	}

	reloadCh := make(chan os.Signal, 1)
	notifyReload(reloadCh)
	go func() {
		for range reloadCh {
			cfg, err := config.Load(configPath, "", overrides)
			if err != nil {
				fmt.Fprintf(errOut, "config reload failed: %v\n", err)
				continue
			}
			// Cached list results may predate the new config.
			store.Flush()
			toolCtx, reg, err := buildRuntime(cfg, errOut, store)
			if err != nil {
				fmt.Fprintf(errOut, "reload init failed: %v\n", err)
				continue
			}
			if len(toolNames) > 0 {
				server.RemoveTools(toolNames...)
			}
			toolNames, err = opsmcp.RegisterSDKTools(server, reg, toolCtx)
			if err != nil {
				fmt.Fprintf(errOut, "tool registration failed: %v\n", err)
				continue
			}
		}
	}()

	transport := opts.Transport
	if transport == nil {
		transport = &sdkmcp.StdioTransport{}
	}
	if err := server.Run(ctx, transport); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func buildRuntime(cfg config.Config, errOut io.Writer, store *cache.Store) (opsmcp.ToolContext, *opsmcp.ToolRegistry, error) {
	authorizer := policy.NewAuthorizer()
	redactor := redact.New()
	auditLogger := audit.NewLogger(errOut)
	reg := opsmcp.NewRegistry(&cfg)

	toolCtx := opsmcp.ToolContext{
		Config:   &cfg,
		Policy:   authorizer,
		Redactor: redactor,
		Audit:    auditLogger,
		Cache:    store,
		Registry: reg,
	}
	toolCtx.Invoker = opsmcp.NewToolInvoker(reg, toolCtx)
	toolsetCtx := opsmcp.ToolsetContext(toolCtx)

	for _, id := range cfg.Toolsets {
		factory, ok := opsmcp.ToolsetFactoryFor(id)
		if !ok {
			return opsmcp.ToolContext{}, nil, fmt.Errorf("unknown toolset: %s", id)
		}
		toolset := factory()
		if err := toolset.Init(toolsetCtx); err != nil {
			return opsmcp.ToolContext{}, nil, err
		}
		if err := toolset.Register(reg); err != nil {
			return opsmcp.ToolContext{}, nil, err
		}
	}

	return toolCtx, reg, nil
}
