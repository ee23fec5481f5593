package swr

import (
	"github.com/hashicorp/go-hclog"

	reactive "github.com/reactive-fn/reactive-go"
)

// PluginContext is handed to each plugin once per resource lifetime. The
// scope is the resource's own scope; plugins register teardown through it.
type PluginContext[T any] struct {
	Resource *Resource[T]
	Store    Store[T]
	Scope    *reactive.Scope
}

// Plugin hooks into a resource lifetime. Init runs once when the resource
// is created; a plugin that panics or returns an error is logged and does
// not prevent the remaining plugins from initializing.
type Plugin[T any] interface {
	Name() string
	Init(ctx *PluginContext[T]) error
}

// BasePlugin provides the boilerplate part of Plugin.
type BasePlugin struct {
	name string
}

// NewBasePlugin creates a base plugin with the given name.
func NewBasePlugin(name string) BasePlugin {
	return BasePlugin{name: name}
}

func (p *BasePlugin) Name() string {
	return p.name
}

func installPlugins[T any](scope *reactive.Scope, res *Resource[T], store Store[T], plugins []Plugin[T], logger hclog.Logger) {
	for _, p := range plugins {
		installPlugin(scope, res, store, p, logger)
	}
}

func installPlugin[T any](scope *reactive.Scope, res *Resource[T], store Store[T], p Plugin[T], logger hclog.Logger) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("resource plugin panicked", "plugin", p.Name(), "panic", rec)
		}
	}()
	ctx := &PluginContext[T]{Resource: res, Store: store, Scope: scope}
	if err := p.Init(ctx); err != nil {
		logger.Error("resource plugin failed to initialize", "plugin", p.Name(), "error", err)
	}
}
