// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - Config command implementation.
//
// Command: config [subcommand]
//
// Subcommands:
//   show (default)      Display the effective configuration
//   path                Show configuration file paths
//   init                Write a configuration file with defaults
//   validate            Check a configuration file
//   get <key>           Print one setting
//   set <key> <value>   Change one setting in the configuration file
//
// Examples:
//   rigbench config show --format yaml
//   rigbench config set workloads.iterations 200000
//   rigbench config set workloads.sizes.fibonacci 40
//   rigbench config set capabilities.disable avx512f,avx2
//   rigbench config init --yes
package cli

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/jeranaias/rigbench/internal/config"
	"github.com/jeranaias/rigbench/internal/logutil"
	"github.com/jeranaias/rigbench/internal/workloads"
)

const sizesPrefix = "workloads.sizes."

// HandleConfig handles the "config" command.
func HandleConfig(args Args) error {
	p := NewArgParser(args.Raw, "yes", "y", "force")

	switch args.Subcommand {
	case "", "show":
		return configShow(args)
	case "path":
		return configPath(args)
	case "init":
		return configInit(args, p)
	case "validate", "check":
		return configValidate(args)
	case "get":
		return configGet(args, p)
	case "set":
		return configSet(args, p)
	case "keys":
		return configKeys(args)
	}
	return &ValidationError{
		Field:   "subcommand",
		Value:   args.Subcommand,
		Reason:  "unknown config subcommand",
		Example: "rigbench config [show|path|init|validate|get|set|keys]",
	}
}

// configFilePath returns the file config commands edit: --config, or the
// default TOML path.
func configFilePath(args Args) (string, error) {
	if args.ConfigPath != "" {
		return args.ConfigPath, nil
	}
	return config.ConfigPathTOML()
}

func configShow(args Args) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}
	path, _ := configFilePath(args)

	switch {
	case args.JSON:
		return NewJSONResponse("config show", ConfigData{Path: path, Config: cfg}).Write(stdout)
	case args.Format == "yaml":
		data, err := config.EncodeYAML(cfg)
		if err != nil {
			return err
		}
		_, err = stdout.Write(data)
		return err
	}

	data, err := config.EncodeTOML(cfg)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, DimStyle.Render("# effective configuration (file: "+path+")"))
	_, err = stdout.Write(data)
	return err
}

func configPath(args Args) error {
	tomlPath, err := config.ConfigPathTOML()
	if err != nil {
		return err
	}
	jsonPath, _ := config.ConfigPathJSON()
	cfg := config.Default()
	historyPath, _ := cfg.HistoryDBPath()

	paths := map[string]string{
		"config_toml": tomlPath,
		"config_json": jsonPath,
		"history_db":  historyPath,
	}
	if args.ConfigPath != "" {
		paths["config_override"] = args.ConfigPath
	}
	if args.JSON {
		return NewJSONResponse("config path", paths).Write(stdout)
	}

	keys := make([]string, 0, len(paths))
	for k := range paths {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		mark := ""
		if _, statErr := os.Stat(paths[k]); statErr == nil {
			mark = SuccessStyle.Render(" (exists)")
		}
		fmt.Fprintf(stdout, "%s%s%s\n", RenderLabel(k), paths[k], mark)
	}
	return nil
}

func configInit(args Args, p *ArgParser) error {
	path, err := configFilePath(args)
	if err != nil {
		return err
	}
	if _, statErr := os.Stat(path); statErr == nil && !p.BoolFlag("force") {
		return NewCommandError("config", "init", "configuration file already exists (use --force to overwrite)", errors.New(path))
	}

	cfg := config.Default()
	if !p.BoolFlag("yes") && !p.BoolFlag("y") && !args.JSON && canPrompt() {
		if err := promptConfig(cfg); err != nil {
			return err
		}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if strings.HasSuffix(path, ".json") {
		err = config.SaveJSON(cfg, path)
	} else {
		err = config.SaveTOML(cfg, path)
	}
	if err != nil {
		return &ConfigError{Path: path, Err: err}
	}

	if args.JSON {
		return NewJSONResponse("config init", map[string]string{"path": path}).Write(stdout)
	}
	fmt.Fprintf(stdout, "%s wrote %s\n", SuccessStyle.Render("[OK]"), path)
	return nil
}

// promptConfig asks for the most commonly changed settings.
func promptConfig(cfg *config.Config) error {
	p := newPrompter()
	defer p.Close()

	fmt.Fprintln(stdout, TitleStyle.Render("rigbench configuration"))
	fmt.Fprintln(stdout, DimStyle.Render("Press enter to keep the default shown in brackets."))

	questions := []struct {
		label string
		key   string
	}{
		{"Base iteration count", "workloads.iterations"},
		{"Memory sweeps per buffer", "workloads.memory_passes"},
		{"Normalization constant K", "scoring.normalization_constant"},
		{"Report format (text, json, yaml, markdown)", "output.format"},
		{"Results directory (empty for ~/.rigbench/results)", "output.dir"},
		{"Live progress view (auto, always, never)", "run.tui"},
		{"Log level (debug, info, warn, error)", "logging.level"},
	}
	for _, q := range questions {
		cur, err := cfg.Get(q.key)
		if err != nil {
			return err
		}
		answer, err := PromptValue(p, q.label, fmt.Sprint(cur))
		if err != nil {
			return err
		}
		if err := cfg.Set(q.key, answer); err != nil {
			return &ValidationError{Field: q.key, Value: answer, Reason: err.Error()}
		}
	}
	return nil
}

func configValidate(args Args) error {
	path := args.ConfigPath
	if path == "" {
		var err error
		if path, err = config.ConfigPathTOML(); err != nil {
			return err
		}
		if _, statErr := os.Stat(path); statErr != nil {
			if jsonPath, jerr := config.ConfigPathJSON(); jerr == nil {
				if _, jstat := os.Stat(jsonPath); jstat == nil {
					path = jsonPath
				}
			}
		}
	}
	if _, statErr := os.Stat(path); statErr != nil {
		return &NotFoundError{Resource: "configuration file", ID: path}
	}

	_, err := config.LoadFromPath(path)
	if args.JSON {
		return OutputJSON(stdout, "config validate", func() (interface{}, error) {
			problems := []string{}
			var verrs config.ValidateErrors
			if errors.As(err, &verrs) {
				for _, v := range verrs {
					problems = append(problems, v.Error())
				}
			} else if err != nil {
				problems = append(problems, err.Error())
			}
			resp := map[string]interface{}{"path": path, "valid": err == nil, "problems": problems}
			if err != nil {
				return resp, &ConfigError{Path: path, Err: err}
			}
			return resp, nil
		})
	}

	if err != nil {
		var verrs config.ValidateErrors
		if errors.As(err, &verrs) {
			fmt.Fprintf(stdout, "%s %s has %d problem(s):\n", ErrorStyle.Render("[FAIL]"), path, len(verrs))
			for _, v := range verrs {
				fmt.Fprintf(stdout, "  - %s\n", v.Error())
			}
		}
		return &ConfigError{Path: path, Err: err}
	}
	fmt.Fprintf(stdout, "%s %s is valid\n", SuccessStyle.Render("[OK]"), path)
	return nil
}

func configGet(args Args, p *ArgParser) error {
	key := p.Positional(1)
	if key == "" {
		return ErrMissingArgument("key", "rigbench config get workloads.iterations")
	}
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}

	var value interface{}
	if id, ok := strings.CutPrefix(key, sizesPrefix); ok {
		n, found := cfg.Workloads.Sizes[id]
		if !found {
			n, found = cfg.WorkloadOptions(hostTopology(cfg, logutil.GetLogger())).DefaultSizes()[id]
		}
		if !found {
			return &NotFoundError{Resource: "workload", ID: id}
		}
		value = n
	} else if value, err = cfg.Get(key); err != nil {
		return &NotFoundError{Resource: "config key", ID: key}
	}

	if args.JSON {
		return NewJSONResponse("config get", map[string]interface{}{"key": key, "value": value}).Write(stdout)
	}
	if list, ok := value.([]string); ok {
		value = strings.Join(list, ",")
	}
	fmt.Fprintln(stdout, value)
	return nil
}

func configSet(args Args, p *ArgParser) error {
	key, value := p.Positional(1), p.Positional(2)
	if key == "" || p.PositionalCount() < 3 {
		return ErrMissingArgument("key and value", "rigbench config set workloads.iterations 200000")
	}
	path, err := configFilePath(args)
	if err != nil {
		return err
	}

	// Edit the file alone so environment overrides are never persisted.
	cfg := config.Default()
	if _, statErr := os.Stat(path); statErr == nil {
		if strings.HasSuffix(path, ".json") {
			err = config.LoadJSON(cfg, path)
		} else {
			err = config.LoadTOML(cfg, path)
		}
		if err != nil {
			return &ConfigError{Path: path, Err: err}
		}
	}

	if id, ok := strings.CutPrefix(key, sizesPrefix); ok {
		if err := setWorkSize(cfg, id, value); err != nil {
			return err
		}
	} else if err := cfg.Set(key, value); err != nil {
		return &ValidationError{Field: key, Value: value, Reason: err.Error(), Example: "rigbench config keys"}
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}

	if strings.HasSuffix(path, ".json") {
		err = config.SaveJSON(cfg, path)
	} else {
		err = config.SaveTOML(cfg, path)
	}
	if err != nil {
		return &ConfigError{Path: path, Err: err}
	}
	config.SetGlobal(cfg)

	if args.JSON {
		return NewJSONResponse("config set", map[string]string{"key": key, "value": value, "path": path}).Write(stdout)
	}
	fmt.Fprintf(stdout, "%s %s = %s\n", SuccessStyle.Render("[OK]"), key, value)
	return nil
}

// setWorkSize sets or, for "default", removes a per-workload size override.
func setWorkSize(cfg *config.Config, id, value string) error {
	known := false
	for _, w := range workloads.IDs() {
		if w == id {
			known = true
			break
		}
	}
	if !known {
		return &NotFoundError{Resource: "workload", ID: id}
	}
	if value == "default" || value == "" {
		delete(cfg.Workloads.Sizes, id)
		return nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 1 {
		return &ValidationError{Field: sizesPrefix + id, Value: value, Reason: "must be a positive integer or \"default\""}
	}
	if cfg.Workloads.Sizes == nil {
		cfg.Workloads.Sizes = make(map[string]int)
	}
	cfg.Workloads.Sizes[id] = n
	return nil
}

func configKeys(args Args) error {
	keys := config.GetAllKeys()
	if args.JSON {
		return NewJSONResponse("config keys", keys).Write(stdout)
	}
	for _, k := range keys {
		fmt.Fprintln(stdout, k)
	}
	fmt.Fprintln(stdout, sizesPrefix+"<workload id>")
	return nil
}
