package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/urfave/cli/v3"

	"github.com/wfunc/gamehub/network"
)

const usage = `commands:
  create <type> <name> [difficulty|mode]   sudoku | tictactoe | battleship | typing
  join <sessionId> <name>
  list [type] | types | start | pause | resume | leave | reset | resetbs | hb
  move <json>                              e.g. move {"row":0,"col":2,"value":5}
  hint <row> <col>
  place <ship> <row> <col> <h|v>
  chat <text>
  quit`

// send frames and writes one packet.
func send(c *websocket.Conn, msgID uint16, body any) error {
	var data []byte
	if body != nil {
		var err error
		if data, err = json.Marshal(body); err != nil {
			return err
		}
	}
	packet, err := network.Encode(msgID, data)
	if err != nil {
		return err
	}
	return c.WriteMessage(websocket.BinaryMessage, packet)
}

func main() {
	cmd := &cli.Command{
		Name:  "gamehub-client",
		Usage: "interactive test client",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Value: "localhost:8080", Usage: "server host:port"},
		},
		Action: run,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	u := url.URL{Scheme: "ws", Host: cmd.String("addr"), Path: "/ws"}
	log.Printf("Connecting to %s", u.String())

	c, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}
	defer c.Close()

	// Read loop
	go func() {
		for {
			_, message, err := c.ReadMessage()
			if err != nil {
				log.Println("Read error:", err)
				os.Exit(0)
			}
			packet, err := network.Decode(message)
			if err != nil {
				log.Printf("Received invalid packet of size %d", len(message))
				continue
			}
			log.Printf("<- %s (%d): %s", network.Name(packet.MsgID), packet.MsgID, packet.Data)
		}
	}()

	// 保持心跳
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			if err := send(c, network.MsgTypeHeartbeat, nil); err != nil {
				return
			}
		}
	}()

	fmt.Println(usage)
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" {
			break
		}
		msgID, body, err := parse(line)
		if err != nil {
			fmt.Println(err)
			continue
		}
		if err := send(c, msgID, body); err != nil {
			return err
		}
	}

	return c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// parse turns a command line into a packet id and JSON body.
func parse(line string) (uint16, any, error) {
	fields := strings.Fields(line)
	args := fields[1:]
	switch fields[0] {
	case "create":
		if len(args) < 2 {
			return 0, nil, fmt.Errorf("usage: create <type> <name> [difficulty|mode]")
		}
		opts := map[string]string{}
		if len(args) > 2 {
			key := "difficulty"
			if args[0] == "typing" {
				key = "mode"
			}
			opts[key] = args[2]
		}
		return network.MsgTypeCreateGame, map[string]any{"type": args[0], "displayName": args[1], "options": opts}, nil
	case "join":
		if len(args) < 2 {
			return 0, nil, fmt.Errorf("usage: join <sessionId> <name>")
		}
		return network.MsgTypeJoinGame, map[string]string{"sessionId": args[0], "displayName": args[1]}, nil
	case "list":
		body := map[string]string{}
		if len(args) > 0 {
			body["type"] = args[0]
		}
		return network.MsgTypeGetAvailableGames, body, nil
	case "types":
		return network.MsgTypeGetSupportedGameTypes, nil, nil
	case "start":
		return network.MsgTypeStartGame, nil, nil
	case "pause":
		return network.MsgTypePauseGame, nil, nil
	case "resume":
		return network.MsgTypeResumeGame, nil, nil
	case "leave":
		return network.MsgTypeLeaveGame, nil, nil
	case "reset":
		return network.MsgTypeResetBoard, nil, nil
	case "resetbs":
		return network.MsgTypeResetBattleship, nil, nil
	case "hb":
		return network.MsgTypeHeartbeat, nil, nil
	case "move":
		raw := strings.TrimSpace(strings.TrimPrefix(line, "move"))
		if !json.Valid([]byte(raw)) {
			return 0, nil, fmt.Errorf("move expects a JSON object")
		}
		return network.MsgTypeMakeMove, json.RawMessage(raw), nil
	case "hint":
		nums, err := ints(args, 2)
		if err != nil {
			return 0, nil, fmt.Errorf("usage: hint <row> <col>")
		}
		return network.MsgTypeUseHint, map[string]int{"row": nums[0], "col": nums[1]}, nil
	case "place":
		if len(args) < 4 {
			return 0, nil, fmt.Errorf("usage: place <ship> <row> <col> <h|v>")
		}
		nums, err := ints(args[1:3], 2)
		if err != nil {
			return 0, nil, err
		}
		orientation := "horizontal"
		if strings.HasPrefix(args[3], "v") {
			orientation = "vertical"
		}
		return network.MsgTypePlaceShip, map[string]any{
			"shipName": args[0], "startRow": nums[0], "startCol": nums[1], "orientation": orientation,
		}, nil
	case "chat":
		return network.MsgTypeChatMessage, map[string]string{"text": strings.TrimSpace(strings.TrimPrefix(line, "chat"))}, nil
	}
	return 0, nil, fmt.Errorf("unknown command %q\n%s", fields[0], usage)
}

func ints(args []string, n int) ([]int, error) {
	if len(args) < n {
		return nil, fmt.Errorf("expected %d numbers", n)
	}
	out := make([]int, n)
	for i := 0; i < n; i++ {
		v, err := strconv.Atoi(args[i])
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
