// Package config provides configuration parsing for reflow projects.
//
// The configuration is stored in reflow.json at the project root.
// This package handles loading, saving, and validating configuration.
//
// # Configuration File Structure
//
//	{
//	  "scheduler": {
//	    "maxRunsPerFlush": 100,
//	    "budgetMaxRuns": 0,
//	    "budgetWindow": "1s"
//	  },
//	  "inspector": {
//	    "enabled": true,
//	    "host": "localhost",
//	    "port": 7433
//	  },
//	  "telemetry": {
//	    "prometheus": false,
//	    "namespace": "reflow",
//	    "otel": false,
//	    "tracerName": "reflow"
//	  }
//	}
//
// All fields are optional; missing fields take the defaults above. The CLI
// walks parent directories to find the project root, so commands work from
// any subdirectory.
package config
