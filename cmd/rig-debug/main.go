package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/thatsimonsguy/rig-panel/db"
	"github.com/thatsimonsguy/rig-panel/internal/api"
	"github.com/thatsimonsguy/rig-panel/internal/channels"
	"github.com/thatsimonsguy/rig-panel/internal/config"
	"github.com/thatsimonsguy/rig-panel/internal/model"
)

func main() {
	DebugCLI()
}

func DebugCLI() {
	var server, cookie, dbPath, command, gpio, group, option string
	var value int
	flag.StringVar(&server, "server", "http://localhost:5002", "Base URL of the rig server")
	flag.StringVar(&cookie, "cookie", "", "Session cookie sent with every request")
	flag.StringVar(&dbPath, "db", "data/session.db", "Path to the session database file")
	flag.StringVar(&command, "cmd", "", "Command to run: adc, gpio-states, set-gpio, set-pwm, log, select, session")
	flag.StringVar(&gpio, "gpio", "", "GPIO number for set-gpio and set-pwm")
	flag.IntVar(&value, "value", 0, "State (0/1) for set-gpio, duty cycle for set-pwm")
	flag.StringVar(&group, "group", "", "Radio group for select (fuel, hydrogen)")
	flag.StringVar(&option, "option", "", "Option for select")
	help := flag.Bool("help", false, "Show help")
	flag.Parse()

	if *help || command == "" {
		fmt.Println("\nUsage of rig-debug:")
		fmt.Println("  -server string\tBase URL of the rig server (default 'http://localhost:5002')")
		fmt.Println("  -cookie string\tSession cookie sent with every request")
		fmt.Println("  -db string\tPath to the session database file (default 'data/session.db')")
		fmt.Println("  -cmd string\tCommand to run: adc, gpio-states, set-gpio, set-pwm, log, select, session")
		fmt.Println("  -gpio string\tGPIO number for set-gpio and set-pwm")
		fmt.Println("  -value int\tState (0/1) for set-gpio, duty cycle for set-pwm")
		fmt.Println("  -group string\tRadio group for select")
		fmt.Println("  -option string\tOption for select")
		fmt.Println("  -help\tShow this help message")
		os.Exit(0)
	}

	client := newClient(server, cookie)
	ctx := context.Background()

	var err error
	switch command {
	case "adc":
		err = printADC(ctx, client)
	case "gpio-states":
		var states api.GPIOStates
		if states, err = client.GPIOStates(ctx); err == nil {
			err = printJSON(states)
		}
	case "set-gpio":
		requireGPIO(gpio)
		err = client.SetGPIO(ctx, model.GPIOID(gpio), value != 0)
	case "set-pwm":
		requireGPIO(gpio)
		err = client.SetPWM(ctx, model.GPIOID(gpio), value)
	case "log":
		err = client.LogSensorData(ctx)
	case "select":
		if group == "" || option == "" {
			fmt.Println("Error: group and option are required")
			os.Exit(1)
		}
		err = db.SetSelectionCLI(dbPath, group, option)
	case "session":
		var selections map[string]string
		var flags map[string]bool
		if selections, flags, err = db.DumpSessionCLI(dbPath); err == nil {
			err = printJSON(map[string]interface{}{"selections": selections, "flags": flags})
		}
	default:
		fmt.Println("Invalid command")
		os.Exit(1)
	}

	if err != nil {
		fmt.Printf("Command %s failed: %v\n", command, err)
		os.Exit(1)
	}
}

func newClient(server, cookie string) *api.Client {
	return api.NewClient(&config.Config{ServerURL: server, Cookie: cookie, RequestTimeoutSeconds: 10})
}

func requireGPIO(gpio string) {
	if !model.GPIOID(gpio).Valid() {
		fmt.Println("Error: a valid gpio (0-27) is required")
		os.Exit(1)
	}
}

func printADC(ctx context.Context, client *api.Client) error {
	values, err := client.ADCValues(ctx)
	if err != nil {
		return err
	}
	rules, err := channels.NewRuleSet(channels.DefaultRules())
	if err != nil {
		return err
	}
	for _, id := range model.AllChannels() {
		raw, ok := values.Raw(id)
		if !ok {
			fmt.Printf("%-8s %-24s -\n", id, rules.Tag(id))
			continue
		}
		d := rules.Render(id, raw)
		fmt.Printf("%-8s %-24s %4d  %.2fV  %s\n", id, rules.Tag(id), raw, channels.Voltage(raw), d.Text)
	}
	return nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
