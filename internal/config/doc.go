// Package config provides configuration parsing for canopy.
//
// The configuration is stored in canopy.json. Every field is optional;
// missing fields take their defaults.
//
// # Configuration File Structure
//
//	{
//	  "viewport": {"width": 800, "height": 600},
//	  "inspector": {
//	    "enabled": true,
//	    "addr": "localhost:7070",
//	    "queueSize": 64
//	  },
//	  "snapshot": {
//	    "dir": "snapshots",
//	    "bucket": "my-bucket",
//	    "prefix": "snapshots/",
//	    "region": "eu-west-1"
//	  },
//	  "log": {"level": "debug", "format": "json"},
//	  "metrics": {"namespace": "canopy"},
//	  "demo": {"counters": 3}
//	}
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
//	logger := cfg.Logger(os.Stderr)
package config
