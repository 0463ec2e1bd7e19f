package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/avavoice/ava/internal/bridge"
	"github.com/avavoice/ava/internal/config"
	"github.com/avavoice/ava/internal/logging"
	"github.com/avavoice/ava/internal/realtime"
	"github.com/avavoice/ava/internal/room"
	"github.com/avavoice/ava/internal/search"
	"github.com/avavoice/ava/internal/todoist"
	"github.com/avavoice/ava/internal/tools"
)

var roomFlag string

var rootCmd = &cobra.Command{
	Use:   "ava",
	Short: "Ava voice assistant worker",
	Long:  "Ava bridges a LiveKit room to a realtime voice model with task, timer and web-search tools.",
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Join the room and run the voice assistant",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBridge()
	},
}

func init() {
	startCmd.Flags().StringVar(&roomFlag, "room", "", "room to join (defaults to ROOM_NAME)")
	rootCmd.AddCommand(startCmd)
}

func runBridge() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	roomName := cfg.RoomName
	if roomFlag != "" {
		roomName = roomFlag
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Infof("[bridge] received signal %v, shutting down", sig)
		cancel()
	}()

	rm, err := room.Connect(room.ConnectInfo{
		URL:       cfg.LiveKitURL,
		APIKey:    cfg.LiveKitAPIKey,
		APISecret: cfg.LiveKitAPISecret,
		RoomName:  roomName,
	})
	if err != nil {
		return err
	}
	defer rm.Disconnect()

	factory := func(ctx context.Context, sc realtime.Config, h realtime.Handlers) (bridge.ModelSession, error) {
		return realtime.Dial(ctx, sc, h)
	}

	b := bridge.New(cfg, rm, factory)

	td := todoist.NewClient(cfg.TodoistToken)
	reg := tools.NewRegistry()
	reg.Register(tools.NewCreateTaskTool(td))
	reg.Register(tools.NewListTasksTool(td))
	reg.Register(tools.NewCompleteTaskTool(td))
	reg.Register(tools.NewTimerTool(b))
	reg.Register(tools.NewSearchTool(search.NewClient(cfg.OpenAIKey)))
	b.SetRegistry(reg)

	if err := b.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
