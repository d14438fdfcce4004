//go:build js && wasm

package main

import (
	"context"
	"syscall/js"

	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-boost/booster"
	"github.com/cwbudde/algo-boost/internal/browser"
)

var (
	engine *booster.Engine
	funcs  []js.Func
)

func main() {
	ctx := context.Background()
	log := logrus.WithField("function", "main")

	logrus.SetFormatter(&logrus.TextFormatter{DisableColors: true, DisableTimestamp: true})

	reg := browser.NewRegistry()
	panel := browser.NewPanel()

	storage, err := browser.NewStorage()
	if err != nil {
		log.WithError(err).Error("Volume Booster initialization error")
		return
	}

	graph, err := browser.NewGraph()
	if err != nil {
		browser.Notifier{}.Notify(booster.Notice{
			Kind:    booster.InitializationFailure,
			Message: "Failed to initialize audio booster: " + err.Error(),
			TTL:     booster.DefaultNoticeTTL,
		})
		log.WithError(err).Error("Volume Booster initialization error")

		return
	}

	engine, err = booster.New(ctx, browser.NewDocument(reg), graph, storage,
		booster.WithInlineEvents(),
		booster.WithPanel(panel),
		booster.WithNotifier(browser.Notifier{Panel: panel}),
	)
	if err != nil {
		log.WithError(err).Error("Volume Booster initialization error")
		return
	}

	browser.Listen(func(cmd booster.Command) booster.Response {
		if cmd.Action == booster.ActionToggleBooster {
			graph.Resume()
		}

		return engine.Update(ctx, booster.CommandEvent(cmd))
	})

	browser.Every(int(booster.DefaultRescanInterval.Milliseconds()), func() {
		engine.Update(ctx, booster.Event{Kind: booster.EventRescan})
	})

	api := js.Global().Get("Object").New()
	api.Set("state", export(func(args []js.Value) any {
		s := engine.State()
		return map[string]any{
			"enabled":  s.Enabled,
			"gain":     s.Gain,
			"attached": engine.Attached(),
			"chain":    engine.Chain().Describe(),
		}
	}))
	js.Global().Set("VolumeBooster", api)

	select {}
}

func export(fn func([]js.Value) any) js.Func {
	f := js.FuncOf(func(_ js.Value, args []js.Value) any {
		return fn(args)
	})
	funcs = append(funcs, f)
	return f
}
