package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/user/remind-me/personal/internal/apiclient"
	"github.com/user/remind-me/personal/internal/config"
	"github.com/user/remind-me/personal/internal/database"
	"github.com/user/remind-me/personal/internal/logging"
	"github.com/user/remind-me/personal/internal/repository"
	"github.com/user/remind-me/personal/internal/service"
	"go.uber.org/zap"
)

var (
	verbose bool

	// session is opened by rootCmd's PersistentPreRunE
	session *cliSession
)

// cliSession is the store and the settings one command runs against.
// Reads come from storage; changes go through writer.
type cliSession struct {
	store *service.ReminderStore
	loc   *time.Location
	close func() error

	// server is tried before writing to storage directly. Nil skips it.
	server    *apiclient.Client
	serverURL string
	// lock takes the storage writer lock and returns its release func.
	lock func() (func() error, error)

	w      reminderWriter
	unlock func() error
}

func (s *cliSession) now() time.Time {
	return time.Now().In(s.loc)
}

var rootCmd = &cobra.Command{
	Use:   "remind",
	Short: "Manage personal reminders from the terminal",
	Long: `remind reads and edits the same reminder storage the API server uses.

Changes go through the server at REMIND_API_URL (default
http://localhost:$PORT) when it answers, so it can arm their alerts.
Otherwise remind takes the storage writer lock and writes directly.

Storage is selected with STORAGE_DRIVER, STORAGE_DIR and DATABASE_URL,
and "today" follows TIMEZONE. A .env file in the working directory is
loaded first.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		session = s
		return nil
	},
	PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
		if session == nil {
			return nil
		}
		return session.release()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log storage activity")
	rootCmd.AddCommand(addCmd, listCmd, doneCmd, editCmd, rmCmd, statsCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func openSession(ctx context.Context) (*cliSession, error) {
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	loc, _ := cfg.Location()

	logger := zap.NewNop()
	if verbose {
		l, err := logging.New("debug", false)
		if err != nil {
			return nil, err
		}
		logger = l
	}

	blobs, closeStorage, err := database.OpenBlobStore(cfg, logger)
	if err != nil {
		return nil, err
	}

	s := &cliSession{
		loc:       loc,
		close:     closeStorage,
		server:    apiclient.New(cfg.ServerURL(), cfg.APIToken),
		serverURL: cfg.ServerURL(),
		lock: func() (func() error, error) {
			lock, err := database.AcquireWriterLock(cfg)
			if err != nil {
				return nil, err
			}
			return lock.Release, nil
		},
	}
	s.store = service.NewReminderStore(repository.NewReminderRepository(blobs), logger,
		service.WithClock(s.now))

	if result := s.store.Load(ctx); result.Discarded || loadError(result) != nil {
		fmt.Fprintln(os.Stderr, "warning: stored reminders could not be read; showing none")
	}
	return s, nil
}

// writer picks how changes are applied. A server answering at serverURL
// owns the storage, so changes go through it. Otherwise the writer lock is
// taken and the collection re-read before anything is written.
func (s *cliSession) writer(ctx context.Context) (reminderWriter, error) {
	if s.w != nil {
		return s.w, nil
	}
	if s.server != nil && s.server.Ping(ctx) == nil {
		s.w = serverWriter{client: s.server}
		return s.w, nil
	}

	unlock, err := s.lock()
	if errors.Is(err, database.ErrStorageBusy) {
		return nil, fmt.Errorf("reminder storage is held by a server that does not answer at %s (set REMIND_API_URL)", s.serverURL)
	}
	if err != nil {
		return nil, err
	}
	s.unlock = unlock

	if err := loadError(s.store.Load(ctx)); err != nil {
		return nil, err
	}
	s.w = storeWriter{store: s.store}
	return s.w, nil
}

func (s *cliSession) release() error {
	var unlockErr error
	if s.unlock != nil {
		unlockErr = s.unlock()
		s.unlock = nil
	}
	if err := s.close(); err != nil {
		return err
	}
	return unlockErr
}

// loadError refuses writes over a collection that was not read in full;
// saving would replace it with what little is in memory.
func loadError(result service.LoadResult) error {
	switch {
	case result.ReadFailed:
		return errors.New("stored reminders could not be read, refusing to change them")
	case result.Incompatible:
		return fmt.Errorf("stored reminders use schema version %d, newer than this tool, refusing to change them", result.Version)
	}
	return nil
}

// resolveID accepts a full id or an unambiguous prefix of one.
func resolveID(arg string) (uuid.UUID, error) {
	if id, err := uuid.Parse(arg); err == nil {
		return id, nil
	}

	prefix := strings.ToLower(arg)
	var match uuid.UUID
	found := 0
	for _, r := range session.store.Snapshot() {
		if strings.HasPrefix(r.ID.String(), prefix) {
			match = r.ID
			found++
		}
	}
	switch found {
	case 0:
		return uuid.Nil, fmt.Errorf("no reminder matches %q", arg)
	case 1:
		return match, nil
	default:
		return uuid.Nil, fmt.Errorf("%q matches %d reminders, use more characters", arg, found)
	}
}

// parseWhen accepts RFC 3339 or "YYYY-MM-DD HH:MM" in the configured zone.
func parseWhen(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	for _, layout := range []string{"2006-01-02 15:04", "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, value, session.loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse %q, use \"YYYY-MM-DD HH:MM\" or RFC 3339", value)
}

func warnIfNotSaved(persisted bool) {
	if !persisted {
		fmt.Fprintln(os.Stderr, "warning: change applied but could not be saved")
	}
}
