// ledgersync is a one-shot command line tool around the ledger sync and
// recovery protocol: it opens the local ledger, dials the given peers and
// synchronizes, evaluates or recovers against them.
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/libp2p/go-libp2p"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/multiformats/go-multiaddr"
	"github.com/oasisprotocol/curve25519-voi/primitives/ed25519"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	p2pcrypto "github.com/libp2p/go-libp2p/core/crypto"

	"github.com/ledgermesh/go-ledgermesh/fetch"
	"github.com/ledgermesh/go-ledgermesh/ledger"
	"github.com/ledgermesh/go-ledgermesh/p2p"
	"github.com/ledgermesh/go-ledgermesh/signing"
	"github.com/ledgermesh/go-ledgermesh/sql"
	"github.com/ledgermesh/go-ledgermesh/sql/ledgerdb"
	"github.com/ledgermesh/go-ledgermesh/syncer"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "ledgersync",
		Short:         "synchronize and recover a transactional ledger against remote peers",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("data", "./ledgersync", "data directory with the key and database")
	root.PersistentFlags().String("listen", "/ip4/0.0.0.0/tcp/6636", "listen multiaddr")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().Duration("timeout", 30*time.Second, "overall command timeout")
	viper.BindPFlags(root.PersistentFlags())

	root.AddCommand(newSyncCmd(), newEvaluateCmd(), newRecoverCmd(), newServeCmd())
	return root
}

type node struct {
	logger *zap.Logger
	signer *signing.EdSigner
	db     *ledgerdb.Database
	store  *ledger.Store
	host   host.Host
	fetch  *fetch.Fetch
	syncer *syncer.Syncer
}

func setup() (*node, error) {
	level, err := zapcore.ParseLevel(viper.GetString("log-level"))
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	dataDir := viper.GetString("data")
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	signer, err := loadOrCreateKey(filepath.Join(dataDir, "identity.key"))
	if err != nil {
		return nil, err
	}
	db, err := ledgerdb.Open(
		"file:"+filepath.Join(dataDir, "ledger.sql"),
		sql.WithLogger(logger.Named("db")),
	)
	if err != nil {
		return nil, err
	}
	store := ledger.New(signer.Peer(), db, ledger.WithLogger(logger.Named("ledger")))

	key, err := p2pcrypto.UnmarshalEd25519PrivateKey(signer.PrivateKey())
	if err != nil {
		return nil, fmt.Errorf("convert identity key: %w", err)
	}
	h, err := libp2p.New(
		libp2p.Identity(key),
		libp2p.ListenAddrStrings(viper.GetString("listen")),
	)
	if err != nil {
		return nil, fmt.Errorf("create host: %w", err)
	}

	f := fetch.NewFetch(h, store, fetch.WithLogger(logger.Named("fetch")))
	f.Start()
	s := syncer.New(store, f, syncer.WithLogger(logger.Named("syncer")))
	logger.Info("node ready",
		zap.Stringer("peer", signer.Peer()),
		zap.String("data", dataDir),
	)
	return &node{
		logger: logger,
		signer: signer,
		db:     db,
		store:  store,
		host:   h,
		fetch:  f,
		syncer: s,
	}, nil
}

func (n *node) close() {
	n.fetch.Stop()
	n.host.Close()
	n.db.Close()
	n.logger.Sync()
}

// connect dials the given multiaddrs and returns the peer ids behind them.
func (n *node) connect(ctx context.Context, addrs []string) ([]p2p.Peer, error) {
	peers := make([]p2p.Peer, 0, len(addrs))
	for _, addr := range addrs {
		maddr, err := multiaddr.NewMultiaddr(addr)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", addr, err)
		}
		info, err := peer.AddrInfoFromP2pAddr(maddr)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", addr, err)
		}
		if err := n.host.Connect(ctx, *info); err != nil {
			return nil, fmt.Errorf("connect %s: %w", addr, err)
		}
		peers = append(peers, info.ID)
	}
	return peers, nil
}

func loadOrCreateKey(path string) (*signing.EdSigner, error) {
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		signer, err := signing.NewEdSigner(signing.WithKeyFromRand(rand.Reader))
		if err != nil {
			return nil, fmt.Errorf("generate key: %w", err)
		}
		encoded := hex.EncodeToString(signer.PrivateKey())
		if err := os.WriteFile(path, []byte(encoded), 0o600); err != nil {
			return nil, fmt.Errorf("write key: %w", err)
		}
		return signer, nil
	case err != nil:
		return nil, fmt.Errorf("read key: %w", err)
	}
	raw, err := hex.DecodeString(string(data))
	if err != nil {
		return nil, fmt.Errorf("decode key: %w", err)
	}
	if len(raw) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("invalid key size %d", len(raw))
	}
	return signing.NewEdSigner(signing.WithPrivateKey(raw))
}

func withNode(run func(ctx context.Context, n *node, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), viper.GetDuration("timeout"))
		defer cancel()
		n, err := setup()
		if err != nil {
			return err
		}
		defer n.close()
		return run(ctx, n, args)
	}
}

func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync [peer-multiaddr...]",
		Short: "exchange id sets with peers and report divergence",
		RunE: withNode(func(ctx context.Context, n *node, args []string) error {
			peers, err := n.connect(ctx, args)
			if err != nil {
				return err
			}
			findings, err := n.syncer.Sync(ctx, peers)
			for _, f := range findings {
				fmt.Printf("peer %s: missing here %d, missing there %d\n",
					f.Peer, len(f.MissingHere), len(f.MissingThere))
			}
			stats := n.fetch.PeerStats()
			fmt.Printf("peers tracked %d, global average latency %.0fns\n",
				stats.Total, stats.GlobalAverageLatency)
			return err
		}),
	}
}

func newEvaluateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "evaluate [peer-multiaddr...]",
		Short: "classify ledger consistency against peers",
		RunE: withNode(func(ctx context.Context, n *node, args []string) error {
			peers, err := n.connect(ctx, args)
			if err != nil {
				return err
			}
			consistent, err := n.syncer.Evaluate(ctx, peers)
			for peer, ok := range consistent {
				fmt.Printf("peer %s: consistent=%v\n", peer, ok)
			}
			return err
		}),
	}
}

func newRecoverCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recover [peer-multiaddr...]",
		Short: "synchronize with peers and admit missing transactions",
		RunE: withNode(func(ctx context.Context, n *node, args []string) error {
			peers, err := n.connect(ctx, args)
			if err != nil {
				return err
			}
			findings, report, err := n.syncer.SyncAndRecover(ctx, peers...)
			for _, f := range findings {
				fmt.Printf("peer %s: missing here %d, missing there %d\n",
					f.Peer, len(f.MissingHere), len(f.MissingThere))
			}
			if report != nil {
				fmt.Printf("admitted %d, failed %d\n", len(report.Admitted), len(report.Failed))
				for id, ferr := range report.Failed {
					fmt.Printf("  %s: %v\n", id.ShortString(), ferr)
				}
			}
			return err
		}),
	}
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "serve the ledger protocols until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := setup()
			if err != nil {
				return err
			}
			defer n.close()
			for _, addr := range n.host.Addrs() {
				fmt.Printf("listening on %s/p2p/%s\n", addr, n.host.ID())
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()
			return nil
		},
	}
}
