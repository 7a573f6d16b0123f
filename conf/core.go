package conf

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/zeptools/gw-pdfedit/apis/docbackend"
	"github.com/zeptools/gw-pdfedit/db"
	"github.com/zeptools/gw-pdfedit/db/kvdb"
	"github.com/zeptools/gw-pdfedit/db/kvdb/impls/redis"
	"github.com/zeptools/gw-pdfedit/db/sqldb"
	_ "github.com/zeptools/gw-pdfedit/db/sqldb/impls/mysql" // registers the mysql factory
	_ "github.com/zeptools/gw-pdfedit/db/sqldb/impls/pgsql" // registers the pgsql factory
	"github.com/zeptools/gw-pdfedit/editor"
	"github.com/zeptools/gw-pdfedit/schedjobs"
	"github.com/zeptools/gw-pdfedit/sec"
	"github.com/zeptools/gw-pdfedit/svc"
	"github.com/zeptools/gw-pdfedit/tasks"
	"github.com/zeptools/gw-pdfedit/throttle"
	"github.com/zeptools/gw-pdfedit/uds"
	"github.com/zeptools/gw-pdfedit/web"
	"github.com/zeptools/gw-pdfedit/web/session"
)

type DebugOpts struct {
	AccessLog bool `json:"access_log"`
}

// UploadConf - limits of files uploaded into sessions
type UploadConf struct {
	MaxUploadMB  int64    `json:"max_upload_mb"`
	AllowedTypes []string `json:"allowed_types"`
}

func (u UploadConf) Limits() editor.Limits {
	return editor.Limits{MaxUploadBytes: u.MaxUploadMB << 20, AllowedTypes: u.AllowedTypes}
}

// Core - common config
type Core struct {
	AppName        string                          `json:"app_name"`
	Listen         string                          `json:"listen"`       // HTTP Server Listen IP:PORT Address
	Host           string                          `json:"host"`         // public url of this gateway. issuer of service tokens
	AdminSocket    string                          `json:"admin_socket"` // unix socket of the admin console. empty = disabled
	IdleTimeoutSec int                             `json:"idle_timeout_sec"`
	TaskDB         string                          `json:"task_db"`             // key of .sql-databases.json holding the task ledger
	TaskRetention  int                             `json:"task_retention_days"` // finished tasks older than this are pruned. 0 = keep
	TaskPruneAt    string                          `json:"task_prune_at"`       // "<min> <hour> <day> <weekday>", default 03:30 daily
	Upload         UploadConf                      `json:"upload"`
	Throttle       map[string]*throttle.BucketConf `json:"throttle"` // bucket group -> conf
	DebugOpts      DebugOpts                       `json:"debug_opts"`

	AppRoot    string             `json:"-"` // Filled from compiled paths
	RootCtx    context.Context    `json:"-"` // Global Context with RootCancel
	RootCancel context.CancelFunc `json:"-"` // CancelFunc for RootCtx

	UDSService          *uds.Service                  `json:"-"` // PrepareUDSService
	WebService          *web.Service                  `json:"-"` // PrepareWebService
	ThrottleBucketStore *throttle.BucketStore[string] `json:"-"` // PrepareThrottleBucketStore
	KVDBConf            kvdb.Conf                     `json:"-"` // loadKVDBConf
	BackendKVDBClient   kvdb.Client                   `json:"-"` // prepareKVDBClient
	SQLDBConfs          map[string]*sqldb.Conf        `json:"-"` // loadSQLDBConfs
	BackendSQLDBClients map[string]sqldb.Client       `json:"-"` // prepareSQLDBClients
	SessionManager      *session.Manager              `json:"-"` // PrepareEditorSessions
	DocBackendClient    *docbackend.Client            `json:"-"` // PrepareDocBackendClient
	ServiceSigner       *sec.ServiceSigner            `json:"-"` // PrepareDocBackendClient, if a signing key is configured
	TaskRepo            *tasks.Repo                   `json:"-"` // PrepareTaskRepo
	EditorHub           *editor.Hub                   `json:"-"` // PrepareEditorHub
	Scheduler           *schedjobs.Scheduler          `json:"-"` // PrepareScheduler

	services []svc.Service // Services to Manage
	done     chan error
}

// readConf decodes <AppRoot>/config/<name> into v
func (c *Core) readConf(name string, v any) error {
	confBytes, err := os.ReadFile(filepath.Join(c.AppRoot, "config", name))
	if err != nil {
		return err
	}
	if err = json.Unmarshal(confBytes, v); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// BaseInit - 1st step for initialization
// 1. set AppRoot
// 2. load config/.core.json file
// 3. Start ShutdownSignalListener
func (c *Core) BaseInit(appRoot string, rootCtx context.Context, rootCancel context.CancelFunc) error {
	c.AppRoot = appRoot
	if err := c.readConf(".core.json", c); err != nil {
		return err
	}
	c.RootCtx = rootCtx
	c.RootCancel = rootCancel
	c.startShutdownSignalListener()
	return nil
}

func (c *Core) AddService(s svc.Service) {
	log.Printf("[INFO] adding service: %s", s.Name())
	c.services = append(c.services, s)
	log.Printf("[INFO] total services: %d", len(c.services))
}

func (c *Core) StartServices() error {
	c.done = make(chan error, len(c.services))
	for _, s := range c.services {
		err := s.Start()
		if err != nil {
			return err
		}
		go func(s svc.Service) {
			err := <-s.Done()
			c.done <- err
		}(s)
	}
	return nil
}

func (c *Core) WaitServicesDone() error {
	for i := 0; i < len(c.services); i++ {
		if err := <-c.done; err != nil {
			return err
		}
	}
	return nil
}

func (c *Core) StopServices() {
	for _, s := range c.services {
		s.Stop()
	}
}

var once sync.Once

func (c *Core) startShutdownSignalListener() {
	once.Do(func() {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			sig := <-sigs
			log.Printf("[INFO] got signal [%s]. shutting down app [%s] ...", sig, c.AppName)
			c.RootCancel() // broadcast to all child services via Context.Done()
		}()
	})
	log.Printf("[INFO][CORE] shutdown signal listener started")
}

func (c *Core) PrepareUDSService(sockPath string, cmds map[string]uds.CmdHnd) {
	c.UDSService = uds.NewService(c.RootCtx, sockPath, cmds)
	c.AddService(c.UDSService)
}

func (c *Core) PrepareWebService(addr string, router http.Handler) {
	c.WebService = web.NewService(c.RootCtx, addr, router)
	c.AddService(c.WebService)
}

// PrepareThrottleBucketStore registers the configured bucket groups
func (c *Core) PrepareThrottleBucketStore(cleanupCycle time.Duration, cleanupOlderThan time.Duration) {
	c.ThrottleBucketStore = throttle.NewBucketStore[string](c.RootCtx, cleanupCycle, cleanupOlderThan)
	for group, bc := range c.Throttle {
		c.ThrottleBucketStore.SetBucketGroup(group, bc)
		log.Printf("[INFO][CORE] throttle group %q burst=%d every %v +%d", group, bc.Burst, bc.Period, bc.Increment)
	}
	c.AddService(c.ThrottleBucketStore)
}

func (c *Core) PrepareKVDatabase() error {
	if err := c.readConf(".kv-databases.json", &c.KVDBConf); err != nil {
		return err
	}
	switch c.KVDBConf.Type {
	case "redis":
		c.BackendKVDBClient = &redis.Client{Conf: &c.KVDBConf}
	// case "memcached"
	default:
		return errors.New("unsupported key-value database type")
	}
	return c.BackendKVDBClient.Init()
}

// PrepareSQLDatabases builds & inits the SQL DB clients. Raw statements of every
// registered group are loaded by each client's Init.
func (c *Core) PrepareSQLDatabases() error {
	c.SQLDBConfs = make(map[string]*sqldb.Conf)
	if err := c.readConf(".sql-databases.json", &c.SQLDBConfs); err != nil {
		return err
	}
	c.BackendSQLDBClients = make(map[string]sqldb.Client)
	for dbName, sqlDBConf := range c.SQLDBConfs {
		dbClient, err := sqldb.New(sqlDBConf)
		if err != nil {
			return err
		}
		if err = dbClient.Init(); err != nil {
			return fmt.Errorf("sql db %q: %w", dbName, err)
		}
		c.BackendSQLDBClients[dbName] = dbClient
	}
	return nil
}

// PrepareEditorSessions prepares SessionManager
// Prerequisite: BackendKVDBClient
func (c *Core) PrepareEditorSessions() error {
	if c.BackendKVDBClient == nil {
		return errors.New("backend KVDB client not ready")
	}
	var sc session.Conf
	if err := c.readConf(".editor-session.json", &sc); err != nil {
		return err
	}
	mgr, err := session.NewManager(sc, c.AppName, c.BackendKVDBClient)
	if err != nil {
		return err
	}
	c.SessionManager = mgr
	return nil
}

// PrepareDocBackendClient to Send Requests to the document backend.
// With a signing key, calls carry an RS256 service token.
func (c *Core) PrepareDocBackendClient() error {
	var bc docbackend.Conf
	if err := c.readConf(".doc-backend.json", &bc); err != nil {
		return err
	}
	var signer docbackend.TokenSigner
	if bc.SigningKeyPath != "" {
		keyPath := bc.SigningKeyPath
		if !filepath.IsAbs(keyPath) {
			keyPath = filepath.Join(c.AppRoot, keyPath)
		}
		key, err := sec.LoadLocalPrivatePEMKey(keyPath)
		if err != nil {
			return err
		}
		c.ServiceSigner, err = sec.NewServiceSigner(c.Host, bc.Audience, bc.KeyID, key, bc.TokenTTL())
		if err != nil {
			return err
		}
		signer = c.ServiceSigner
	}
	c.DocBackendClient = docbackend.NewClient(&bc, signer)
	return nil
}

// PrepareTaskRepo binds the task ledger to the TaskDB client and ensures its table
// Prerequisite: BackendSQLDBClients
func (c *Core) PrepareTaskRepo() error {
	if c.TaskDB == "" {
		log.Println("[INFO][CORE] no task_db. task ledger disabled")
		return nil
	}
	client, ok := c.BackendSQLDBClients[c.TaskDB]
	if !ok {
		return fmt.Errorf("task_db %q not configured", c.TaskDB)
	}
	c.TaskRepo = tasks.NewRepo(client)
	ctx, cancel := context.WithTimeout(c.RootCtx, 10*time.Second)
	defer cancel()
	return c.TaskRepo.EnsureSchema(ctx)
}

// PrepareEditorHub wires the editor collaborators into the session hub
// Prerequisite: DocBackendClient
func (c *Core) PrepareEditorHub() error {
	if c.DocBackendClient == nil {
		return errors.New("document backend client not ready")
	}
	deps := editor.Deps{
		Backend: c.DocBackendClient,
		Limits:  c.Upload.Limits(),
	}
	if c.TaskRepo != nil {
		deps.Tasks = c.TaskRepo
	}
	var store editor.Store
	if c.SessionManager != nil {
		store = c.SessionManager
	}
	c.EditorHub = editor.NewHub(c.RootCtx, deps, store, time.Duration(c.IdleTimeoutSec)*time.Second)
	c.AddService(c.EditorHub)
	return nil
}

// PrepareScheduler registers the maintenance jobs
func (c *Core) PrepareScheduler() error {
	c.Scheduler = schedjobs.NewScheduler(c.RootCtx)
	if c.TaskRepo != nil && c.TaskRetention > 0 {
		at := schedjobs.Daily(3, 30)
		if c.TaskPruneAt != "" {
			var err error
			if at, err = schedjobs.ParseSchedule(c.TaskPruneAt); err != nil {
				return err
			}
		}
		c.Scheduler.Add(&schedjobs.Job{
			ID:       "prune-tasks",
			Schedule: at,
			Task:     c.TaskRepo.PruneJob(time.Duration(c.TaskRetention) * 24 * time.Hour),
		})
	}
	c.AddService(c.Scheduler)
	return nil
}

func (c *Core) ResourceCleanUp() {
	log.Println("[INFO] App Resource Cleaning Up...")
	if c.BackendKVDBClient != nil {
		db.Close("KVDB", c.BackendKVDBClient)
	}
	for name, sqlDBClient := range c.BackendSQLDBClients {
		db.Close(sqlDBClient.GetConf().Type+":"+name, sqlDBClient)
	}
	log.Println("[INFO] App Resource Cleanup Complete")
}
