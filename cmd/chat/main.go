package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	modeFlag   string
	tableFlag  string
	muteFlag   bool
	openFlag   bool
	delayFlag  string
	natsFlag   string
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the portfolio assistant in the terminal",
	Long: `chat opens the portfolio assistant widget in the terminal.

Keys:
  esc      open or close the chat window
  enter    send the typed message
  F1..F4   send a suggestion (keyword mode)
  1..9     pick a menu option (menu mode, empty input)
  ctrl+s   mute or unmute narration
  ctrl+c   quit`,
	SilenceUsage: true,
	RunE:         runChat,
}

var askCmd = &cobra.Command{
	Use:   "ask <message>",
	Short: "Ask one question and print the reply",
	Long: `Ask one question and print the reply.

By default the question is answered from the local knowledge table. With
--nats the question is sent to a running service over NATS instead.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&modeFlag, "mode", "", "responder mode: keyword or menu (default from CHAT_MODE)")
	rootCmd.PersistentFlags().StringVar(&tableFlag, "table", "", "knowledge table YAML file (default embedded)")

	rootCmd.Flags().BoolVar(&muteFlag, "mute", false, "start with narration muted")
	rootCmd.Flags().BoolVar(&openFlag, "open", true, "start with the chat window open")
	rootCmd.Flags().StringVar(&delayFlag, "delay", "", "typing delay before replies, e.g. 500ms")

	askCmd.Flags().StringVar(&natsFlag, "nats", "", "ask a running service at this NATS URL")
	askCmd.Flags().BoolVar(&jsonOutput, "json", false, "print the full response as JSON")

	rootCmd.AddCommand(askCmd)
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
