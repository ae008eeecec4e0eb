// Package canopy ties the widget engine together.
//
// Most programs need one of two entry points. An App runs a root widget
// under a host with metrics, tracing, an optional inspector server and a
// snapshot store, all configured from canopy.json:
//
//	cfg, _ := config.LoadFromWorkingDir()
//	app, err := canopy.New(cfg, widgets.Demo(3))
//	if err != nil {
//	    return err
//	}
//	return app.Run(ctx)
//
// A Driver renders, lays out and paints synchronously on the calling
// goroutine. It suits tests and command line tools:
//
//	d := canopy.NewDriver(ui.Size{Width: 320, Height: 240})
//	d.Mount(widgets.Demo(3))
//	widgets.Increment(state)
//	frames := d.Flush()
package canopy
