// Command editord serves PDF editor sessions over HTTP
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/zeptools/gw-pdfedit/conf"
	"github.com/zeptools/gw-pdfedit/routing"
	"github.com/zeptools/gw-pdfedit/sec"
	"github.com/zeptools/gw-pdfedit/uds"
	"github.com/zeptools/gw-pdfedit/web/editorapi"
)

func main() {
	exe, _ := os.Executable()
	appRoot := flag.String("root", filepath.Dir(filepath.Dir(exe)), "app root holding config/")
	flag.Parse()

	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	var core conf.Core
	if err := run(&core, *appRoot, rootCtx, rootCancel); err != nil {
		log.Printf("[ERROR] %v", err)
		core.StopServices()
		core.ResourceCleanUp()
		os.Exit(1)
	}
	core.ResourceCleanUp()
}

func run(core *conf.Core, appRoot string, rootCtx context.Context, rootCancel context.CancelFunc) error {
	if err := core.BaseInit(appRoot, rootCtx, rootCancel); err != nil {
		return err
	}
	if err := core.PrepareKVDatabase(); err != nil {
		return err
	}
	if err := core.PrepareEditorSessions(); err != nil {
		return err
	}
	if err := core.PrepareSQLDatabases(); err != nil {
		return err
	}
	if err := core.PrepareTaskRepo(); err != nil {
		return err
	}
	if err := core.PrepareDocBackendClient(); err != nil {
		return err
	}
	core.PrepareThrottleBucketStore(time.Minute, 10*time.Minute)
	if err := core.PrepareEditorHub(); err != nil {
		return err
	}
	if err := core.PrepareScheduler(); err != nil {
		return err
	}

	var jwks *sec.JWKS
	if core.ServiceSigner != nil {
		jwks = core.ServiceSigner.PublicKeys()
	}
	api := &editorapi.API{
		Hub:      core.EditorHub,
		Sessions: core.SessionManager,
		Throttle: core.ThrottleBucketStore,
		JWKS:     jwks,
		Limits:   core.Upload.Limits(),
	}
	router := routing.NewRouter()
	api.Register(router)

	var handler http.Handler = router
	if core.DebugOpts.AccessLog {
		handler = routing.AccessLogWrapper.Wrap(handler)
	}
	handler = routing.RecoverWrapper.Wrap(handler)
	core.PrepareWebService(core.Listen, handler)

	if core.AdminSocket != "" {
		cmds := core.EditorHub.AdminCommands()
		cmds["routes"] = uds.CmdHnd{
			Desc:  "list registered http routes",
			Usage: "routes",
			Fn: func(args []string, w io.Writer) error {
				for _, p := range router.Patterns() {
					_, _ = fmt.Fprintln(w, p)
				}
				return nil
			},
		}
		core.PrepareUDSService(core.AdminSocket, cmds)
	}

	if err := core.StartServices(); err != nil {
		return err
	}
	log.Printf("[INFO] %s listening on %s", core.AppName, core.Listen)
	return core.WaitServicesDone()
}
