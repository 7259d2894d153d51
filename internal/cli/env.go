package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/spf13/cobra"

	"github.com/roach88/council/internal/chain"
	"github.com/roach88/council/internal/config"
	"github.com/roach88/council/internal/delegate"
	"github.com/roach88/council/internal/eligibility"
	"github.com/roach88/council/internal/session"
	"github.com/roach88/council/internal/store"
)

// PrivateKeyEnv is read when --private-key is not given.
const PrivateKeyEnv = "COUNCIL_PRIVATE_KEY"

// env opens the collaborators a command needs on first use and closes
// them together.
type env struct {
	opts *RootOptions

	cfg    *config.Config
	st     *store.Store
	client *ethclient.Client
	bus    *chain.Bus
	reader *chain.Reader
}

func newEnv(opts *RootOptions) *env {
	return &env{opts: opts}
}

func (e *env) loadConfig() (*config.Config, error) {
	if e.cfg != nil {
		return e.cfg, nil
	}
	cfg, err := config.Load(e.opts.ConfigPath)
	if err != nil {
		return nil, &ExitError{Code: ExitCommandError, Message: "failed to load config", Err: err, CodeName: CodeConfig}
	}
	e.cfg = cfg
	return cfg, nil
}

func (e *env) openStore() (*store.Store, error) {
	if e.st != nil {
		return e.st, nil
	}
	slog.Debug("opening session store", "path", e.opts.Database)
	st, err := store.Open(e.opts.Database)
	if err != nil {
		return nil, &ExitError{Code: ExitCommandError, Message: "failed to open database", Err: err, CodeName: CodeStore}
	}
	e.st = st
	return st, nil
}

func (e *env) manager(ctx context.Context) (*session.Manager, error) {
	st, err := e.openStore()
	if err != nil {
		return nil, err
	}
	mgr, err := session.NewManager(ctx, st)
	if err != nil {
		return nil, &ExitError{Code: ExitCommandError, Message: "failed to start session manager", Err: err, CodeName: CodeStore}
	}
	return mgr, nil
}

// dial connects to the configured node. The cached reader and the
// submitter share one invalidation bus, dispatched by settle.
func (e *env) dial(ctx context.Context) (*chain.Reader, error) {
	if e.reader != nil {
		return e.reader, nil
	}
	cfg, err := e.loadConfig()
	if err != nil {
		return nil, err
	}

	slog.Debug("dialing node", "rpc", cfg.RPC)
	client, err := ethclient.DialContext(ctx, cfg.RPC)
	if err != nil {
		return nil, unavailable("failed to connect to node", err)
	}
	id, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, unavailable("failed to read chain id", err)
	}
	if id.Cmp(big.NewInt(cfg.ChainID)) != 0 {
		client.Close()
		return nil, &ExitError{
			Code:     ExitCommandError,
			Message:  fmt.Sprintf("node serves chain %s, config expects %d", id, cfg.ChainID),
			CodeName: CodeConfig,
		}
	}

	e.client = client
	e.bus = chain.NewBus()
	e.reader = chain.NewCachedReader(client, cfg.ChainContracts(), e.bus)
	return e.reader, nil
}

// blockNumber returns the latest block of the connected node.
func (e *env) blockNumber(ctx context.Context) (uint64, error) {
	if _, err := e.dial(ctx); err != nil {
		return 0, err
	}
	block, err := e.client.BlockNumber(ctx)
	if err != nil {
		return 0, unavailable("failed to read block number", err)
	}
	return block, nil
}

// settle applies invalidations published by submitted transactions so
// later reads see fresh state.
func (e *env) settle() {
	if e.bus != nil {
		e.bus.Flush()
	}
}

// submitter builds a transaction submitter signing with hexKey, or with
// $COUNCIL_PRIVATE_KEY when hexKey is empty. Transactions are recorded in
// the session store.
func (e *env) submitter(ctx context.Context, hexKey string) (*chain.TxSubmitter, error) {
	if hexKey == "" {
		hexKey = os.Getenv(PrivateKeyEnv)
	}
	if hexKey == "" {
		return nil, &ExitError{
			Code:     ExitCommandError,
			Message:  "no signing key: pass --private-key or set " + PrivateKeyEnv,
			CodeName: CodeInput,
		}
	}
	key, err := chain.ParsePrivateKey(hexKey)
	if err != nil {
		return nil, &ExitError{Code: ExitCommandError, Message: "invalid private key", Err: err, CodeName: CodeInput}
	}
	if _, err := e.dial(ctx); err != nil {
		return nil, err
	}
	st, err := e.openStore()
	if err != nil {
		return nil, err
	}
	sub, err := chain.NewTxSubmitter(e.client, key, big.NewInt(e.cfg.ChainID), e.bus, chain.WithRecorder(st))
	if err != nil {
		return nil, fail("failed to create submitter", err)
	}
	slog.Debug("signing as", "account", sub.From().Hex())
	return sub, nil
}

// resolver builds the eligibility resolver over the configured merkle data
// file and the connected node.
func (e *env) resolver(ctx context.Context) (*eligibility.Resolver, error) {
	cfg, err := e.loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Merkle == nil {
		return nil, &ExitError{Code: ExitCommandError, Message: "merkle.path is not configured", CodeName: CodeConfig}
	}
	source, err := eligibility.LoadFileSource(cfg.Merkle.Path)
	if err != nil {
		return nil, &ExitError{Code: ExitCommandError, Message: "failed to load merkle data", Err: err, CodeName: CodeConfig}
	}
	reader, err := e.dial(ctx)
	if err != nil {
		return nil, err
	}
	var opts []eligibility.ResolverOption
	if root, ok := cfg.MerkleRoot(); ok {
		opts = append(opts, eligibility.WithRoot(root))
	}
	return eligibility.NewResolver(source, reader, opts...), nil
}

// vaults returns the contracts whose VoteChange events carry delegations.
func (e *env) vaults() []common.Address {
	c := e.cfg.ChainContracts()
	return []common.Address{c.LockingVault, c.VestingVault}
}

func (e *env) close() {
	if e.bus != nil {
		e.bus.Close()
	}
	if e.client != nil {
		e.client.Close()
	}
	if e.st != nil {
		if err := e.st.Close(); err != nil {
			slog.Error("error closing database", "error", err)
		}
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func addKeyFlag(cmd *cobra.Command, key *string) {
	cmd.Flags().StringVar(key, "private-key", "", "hex signing key (default $"+PrivateKeyEnv+")")
}

// fail wraps a domain error, choosing the exit code from its class.
func fail(message string, err error) *ExitError {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr
	}
	code := ErrorCode(err)
	exit := ExitFailure
	switch code {
	case CodeInput, CodeConfig, CodeUnavailable:
		exit = ExitCommandError
	}
	return &ExitError{Code: exit, Message: message, Err: err, CodeName: code}
}

func unavailable(message string, err error) *ExitError {
	return &ExitError{
		Code:     ExitCommandError,
		Message:  message,
		Err:      fmt.Errorf("%w: %w", eligibility.ErrUnavailable, err),
		CodeName: CodeUnavailable,
	}
}

func parseAccount(s string) (common.Address, error) {
	addr, err := delegate.ValidateAddress(s)
	if err != nil {
		return common.Address{}, fail("invalid account", err)
	}
	return addr, nil
}
