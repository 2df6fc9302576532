// Command escanor-cli is a minimal line-oriented REPL: it sends each
// typed line to the server as a RESP array frame and prints the reply,
// the external collaborator spec.md §1 assumes but does not itself
// specify.
package main

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mambisi/escanor/internal/resp"
)

func main() {
	var addr string
	root := &cobra.Command{
		Use:   "escanor-cli",
		Short: "connect to an Escanor node and issue commands interactively",
		RunE: func(cmd *cobra.Command, args []string) error {
			return repl(addr)
		},
	}
	root.Flags().StringVar(&addr, "addr", "127.0.0.1:6379", "server address to connect to")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func repl(addr string) error {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("escanor-cli: dial %s: %w", addr, err)
	}
	defer conn.Close()

	stdin := bufio.NewScanner(os.Stdin)
	serverBuf := make([]byte, 4096)
	fmt.Printf("connected to %s\n", addr)

	for {
		fmt.Print("escanor> ")
		if !stdin.Scan() {
			return nil
		}
		line := strings.TrimSpace(stdin.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			return nil
		}

		tokens := resp.TokensFromText(line)
		if len(tokens) == 0 {
			continue
		}
		if _, err := conn.Write(resp.Encode(nil, resp.StrArr(tokens))); err != nil {
			return fmt.Errorf("escanor-cli: write: %w", err)
		}

		n, err := conn.Read(serverBuf)
		if err != nil {
			return fmt.Errorf("escanor-cli: read: %w", err)
		}
		reply, _, err := resp.Decode(serverBuf[:n])
		if err != nil || reply == nil {
			fmt.Println("(malformed reply)")
			continue
		}
		fmt.Println(formatReply(*reply))
	}
}

func formatReply(f resp.Frame) string {
	switch f.Kind {
	case resp.SimpleString:
		return f.Str
	case resp.Error:
		return "(error) " + f.ErrMsg
	case resp.Integer:
		return fmt.Sprintf("(integer) %d", f.Int)
	case resp.BulkString:
		if f.BulkNull {
			return "(nil)"
		}
		return string(f.Bulk)
	case resp.Array:
		if f.ArrayNull {
			return "(nil)"
		}
		parts := make([]string, len(f.Items))
		for i, item := range f.Items {
			parts[i] = formatReply(item)
		}
		return strings.Join(parts, "\n")
	default:
		return ""
	}
}
