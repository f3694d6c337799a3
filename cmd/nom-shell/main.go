// Command nom-shell is an interactive explorer for NOM peers.
//
// It runs its own NOM service (every shell is a full peer, so callbacks and
// reference arguments work), connects to remote peers, and exposes the proxy
// capability set as shell commands.
//
// Usage:
//
//	nom-shell [flags]
//
// Flags:
//
//	-addr string  Local bind address (default "0.0.0.0:0")
//
// Commands inside the shell:
//
//	browse                     find peers over mDNS
//	connect <host:port>        connect to a peer
//	list                       list the peer's public names
//	resolve <name>             obtain a proxy for a name
//	get <attr>                 read an attribute of the current proxy
//	set <attr> <value>         write an attribute
//	del <attr>                 delete an attribute
//	item <key>                 read an indexed element
//	setitem <key> <value>      write an indexed element
//	delitem <key>              delete an indexed element
//	len                        remote length
//	str | repr                 remote textual conversions
//	call [args...]             invoke the current proxy
//	method <name> [args...]    invoke a method of the current proxy
//	release                    release the current proxy
//	peers                      known peer endpoints
//	help                       command summary
//	exit                       quit
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/nom-protocol/nom-go/pkg/discovery"
	"github.com/nom-protocol/nom-go/pkg/proxy"
	"github.com/nom-protocol/nom-go/pkg/service"
	"github.com/nom-protocol/nom-go/pkg/version"
)

// shell holds the REPL state: one local service, the current peer handle
// and the current proxy.
type shell struct {
	svc     *service.Service
	rl      *readline.Instance
	handle  *service.PeerHandle
	current *proxy.Proxy
}

func main() {
	addr := flag.String("addr", "0.0.0.0:0", "local bind address")
	flag.Parse()

	svc := service.New(service.Config{Addr: *addr})
	if err := svc.Start(); err != nil {
		fmt.Println("nom-shell:", err)
		return
	}
	defer svc.Stop()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "nom> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Println("nom-shell:", err)
		return
	}
	defer rl.Close()

	sh := &shell{svc: svc, rl: rl}
	fmt.Printf("%s, local peer on %s\n", version.UserAgent(), svc.LocalAddr())
	sh.printHelp()
	sh.run()
}

func (sh *shell) run() {
	for {
		line, err := sh.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			if err == io.EOF {
				return
			}
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.Fields(line)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		if cmd == "exit" || cmd == "quit" {
			return
		}
		if err := sh.execute(cmd, args); err != nil {
			fmt.Println("error:", err)
		}
	}
}

func (sh *shell) execute(cmd string, args []string) error {
	switch cmd {
	case "help":
		sh.printHelp()
		return nil
	case "browse":
		return sh.cmdBrowse()
	case "connect":
		return sh.cmdConnect(args)
	case "list":
		return sh.cmdList()
	case "resolve":
		return sh.cmdResolve(args)
	case "peers":
		for _, addr := range sh.svc.Peers() {
			fmt.Println(addr)
		}
		return nil
	case "release":
		p, err := sh.proxyArg()
		if err != nil {
			return err
		}
		p.Release()
		sh.current = nil
		return nil
	}

	// Everything below operates on the current proxy.
	p, err := sh.proxyArg()
	if err != nil {
		return err
	}
	switch cmd {
	case "get":
		if len(args) != 1 {
			return fmt.Errorf("usage: get <attr>")
		}
		v, err := p.GetAttr(args[0])
		if err != nil {
			return err
		}
		printValue(v)
		return nil
	case "set":
		if len(args) != 2 {
			return fmt.Errorf("usage: set <attr> <value>")
		}
		return p.SetAttr(args[0], parseLiteral(args[1]))
	case "del":
		if len(args) != 1 {
			return fmt.Errorf("usage: del <attr>")
		}
		return p.DelAttr(args[0])
	case "item":
		if len(args) != 1 {
			return fmt.Errorf("usage: item <key>")
		}
		v, err := p.GetItem(parseLiteral(args[0]))
		if err != nil {
			return err
		}
		printValue(v)
		return nil
	case "setitem":
		if len(args) != 2 {
			return fmt.Errorf("usage: setitem <key> <value>")
		}
		return p.SetItem(parseLiteral(args[0]), parseLiteral(args[1]))
	case "delitem":
		if len(args) != 1 {
			return fmt.Errorf("usage: delitem <key>")
		}
		return p.DelItem(parseLiteral(args[0]))
	case "len":
		n, err := p.Len()
		if err != nil {
			return err
		}
		fmt.Println(n)
		return nil
	case "str":
		s, err := p.Str()
		if err != nil {
			return err
		}
		fmt.Println(s)
		return nil
	case "repr":
		s, err := p.Repr()
		if err != nil {
			return err
		}
		fmt.Println(s)
		return nil
	case "call":
		v, err := p.Call(parseLiterals(args)...)
		if err != nil {
			return err
		}
		printValue(v)
		return nil
	case "method":
		if len(args) < 1 {
			return fmt.Errorf("usage: method <name> [args...]")
		}
		v, err := p.CallMethod(args[0], parseLiterals(args[1:])...)
		if err != nil {
			return err
		}
		printValue(v)
		return nil
	default:
		return fmt.Errorf("unknown command %q (try help)", cmd)
	}
}

func (sh *shell) cmdBrowse() error {
	ctx, cancel := context.WithTimeout(context.Background(), 6*time.Second)
	defer cancel()
	peers, err := discovery.Browse(ctx, 5*time.Second)
	if err != nil {
		return err
	}
	if len(peers) == 0 {
		fmt.Println("no peers found")
		return nil
	}
	for _, info := range peers {
		fmt.Printf("%-24s v%d %s\n", info.Instance, info.Version, joinAddrs(info))
	}
	return nil
}

func joinAddrs(info discovery.PeerInfo) string {
	parts := make([]string, 0, len(info.Addrs))
	for _, a := range info.Addrs {
		parts = append(parts, a.String())
	}
	return strings.Join(parts, " ")
}

func (sh *shell) cmdConnect(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: connect <host:port>")
	}
	h, err := sh.svc.Connect(args[0])
	if err != nil {
		return err
	}
	sh.handle = h
	sh.current = nil
	fmt.Println("connected to", h.Addr())
	return nil
}

func (sh *shell) cmdList() error {
	if sh.handle == nil {
		return fmt.Errorf("not connected (use connect)")
	}
	names, err := sh.handle.List()
	if err != nil {
		return err
	}
	for _, n := range names {
		fmt.Println(n)
	}
	return nil
}

func (sh *shell) cmdResolve(args []string) error {
	if sh.handle == nil {
		return fmt.Errorf("not connected (use connect)")
	}
	if len(args) != 1 {
		return fmt.Errorf("usage: resolve <name>")
	}
	p, err := sh.handle.Resolve(args[0])
	if err != nil {
		return err
	}
	sh.current = p
	fmt.Println("current proxy:", p.GoString())
	return nil
}

func (sh *shell) proxyArg() (*proxy.Proxy, error) {
	if sh.current == nil {
		return nil, fmt.Errorf("no current proxy (use resolve)")
	}
	return sh.current, nil
}

func (sh *shell) printHelp() {
	fmt.Print(`commands:
  browse | connect <host:port> | list | resolve <name> | peers
  get/set/del <attr> [value]      attribute access
  item/setitem/delitem <key> [v]  indexed access
  len | str | repr                queries
  call [args...]                  invoke the current proxy
  method <name> [args...]         invoke a method
  release | help | exit
`)
}

// parseLiteral reads a shell token as nil, bool, int, float or string.
func parseLiteral(tok string) any {
	switch tok {
	case "nil", "null":
		return nil
	case "true":
		return true
	case "false":
		return false
	}
	if i, err := strconv.ParseInt(tok, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(tok, 64); err == nil {
		return f
	}
	return strings.Trim(tok, `"`)
}

func parseLiterals(toks []string) []any {
	out := make([]any, 0, len(toks))
	for _, t := range toks {
		out = append(out, parseLiteral(t))
	}
	return out
}

// printValue renders a result; proxies print their identity, not a network
// round trip.
func printValue(v any) {
	if p, ok := v.(*proxy.Proxy); ok {
		fmt.Println(p.GoString())
		return
	}
	fmt.Printf("%v\n", v)
}
