// Package configurator implements the setup wizard behind the
// windsurf-setup command: a numbered question-and-answer session that
// assembles a model configuration document. List questions accept one
// answer per line and finish on an empty line; an unanswered question
// falls back to its default.
package configurator

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"sort"
	"strconv"
	"strings"
)

// Configurator walks a user through assembling a configuration document.
type Configurator struct {
	in      *bufio.Scanner
	out     io.Writer
	engines []string
	n       int
}

// New creates a wizard reading answers from r and writing prompts to w.
// engines lists the model cores the generated configuration may use.
func New(r io.Reader, w io.Writer, engines []string) *Configurator {
	return &Configurator{
		in:      bufio.NewScanner(r),
		out:     w,
		engines: engines,
	}
}

// Run asks all questions and returns the configuration as indented JSON.
func (c *Configurator) Run() (string, error) {
	fmt.Fprintln(c.out, "Windsurf model setup. List questions take one answer per line; an empty line finishes the list.")

	models, err := c.ask("Which model cores does the simulation couple?", c.engines)
	if err != nil {
		return "", err
	}

	var chosen []string
	modelSection := map[string]any{}
	for _, model := range models {
		if !slices.Contains(c.engines, model) {
			fmt.Fprintf(c.out, "     Skipping unsupported model core %q.\n", model)
			continue
		}
		if slices.Contains(chosen, model) {
			continue
		}
		chosen = append(chosen, model)
		modelSection[model] = map[string]any{
			"engine":     model,
			"configfile": model + ".txt",
		}
	}
	sort.Strings(chosen)

	start, err := c.askFloat("Simulation start time in seconds?", 0)
	if err != nil {
		return "", err
	}
	stop, err := c.askFloat("Simulation stop time in seconds?", 3600)
	if err != nil {
		return "", err
	}

	exchange := []any{}
	for _, from := range chosen {
		for _, to := range chosen {
			if from == to {
				continue
			}
			pairs, err := c.ask(fmt.Sprintf(
				"Variables exchanged from %s to %s, as \"source = target\"?", from, to), nil)
			if err != nil {
				return "", err
			}
			for _, pair := range pairs {
				src, dst, err := splitPair(pair)
				if err != nil {
					return "", err
				}
				exchange = append(exchange, map[string]any{
					"var_from": from + "." + src,
					"var_to":   to + "." + dst,
				})
			}
		}
	}

	regimes, err := c.ask("Which environmental regimes does the scenario use?", []string{"calm", "storm"})
	if err != nil {
		return "", err
	}

	regimeSection := map[string]any{}
	for _, regime := range regimes {
		inRegime, err := c.ask(fmt.Sprintf("Which model cores does regime %q configure?", regime), chosen)
		if err != nil {
			return "", err
		}

		entry := map[string]any{}
		for _, model := range inRegime {
			if !slices.Contains(chosen, model) {
				fmt.Fprintf(c.out, "     Skipping model core %q, it is not part of this simulation.\n", model)
				continue
			}
			params, err := c.ask(fmt.Sprintf(
				"Parameters for %s under regime %q, as \"name = value\"?", model, regime), nil)
			if err != nil {
				return "", err
			}

			set := map[string]any{}
			for _, param := range params {
				key, raw, err := splitPair(param)
				if err != nil {
					return "", err
				}
				set[key] = typed(raw)
			}
			entry[model] = set
		}
		regimeSection[regime] = entry
	}

	doc := map[string]any{
		"time":     map[string]any{"start": start, "stop": stop},
		"models":   modelSection,
		"exchange": exchange,
		"regimes":  regimeSection,
		"scenario": []any{},
	}

	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ask poses a list question and collects answers until an empty line or
// the end of input. With no answers the default is returned.
func (c *Configurator) ask(question string, def []string) ([]string, error) {
	c.n++
	fmt.Fprintf(c.out, "\n%3d: %s\n", c.n, question)
	if len(def) > 0 {
		fmt.Fprintf(c.out, "     Default: %s\n", strings.Join(def, ", "))
	}

	var answers []string
	for {
		fmt.Fprint(c.out, "  >> ")
		if !c.in.Scan() {
			if err := c.in.Err(); err != nil {
				return nil, err
			}
			break
		}
		line := strings.ToLower(strings.TrimSpace(c.in.Text()))
		if line == "" {
			break
		}
		answers = append(answers, line)
	}

	if len(answers) == 0 {
		return def, nil
	}
	return answers, nil
}

// askOne poses a single-answer question; an empty line takes the default.
func (c *Configurator) askOne(question, def string) (string, error) {
	c.n++
	fmt.Fprintf(c.out, "\n%3d: %s\n", c.n, question)
	if def != "" {
		fmt.Fprintf(c.out, "     Default: %s\n", def)
	}
	fmt.Fprint(c.out, "  >> ")
	if !c.in.Scan() {
		if err := c.in.Err(); err != nil {
			return "", err
		}
		return def, nil
	}
	line := strings.ToLower(strings.TrimSpace(c.in.Text()))
	if line == "" {
		return def, nil
	}
	return line, nil
}

func (c *Configurator) askFloat(question string, def float64) (float64, error) {
	answer, err := c.askOne(question, strconv.FormatFloat(def, 'g', -1, 64))
	if err != nil {
		return 0, err
	}
	val, err := strconv.ParseFloat(answer, 64)
	if err != nil {
		return 0, fmt.Errorf("expected a number, got %q", answer)
	}
	return val, nil
}

// splitPair parses a "left = right" answer.
func splitPair(s string) (string, string, error) {
	left, right, found := strings.Cut(s, "=")
	left, right = strings.TrimSpace(left), strings.TrimSpace(right)
	if !found || left == "" || right == "" {
		return "", "", fmt.Errorf("invalid answer %q, expected \"left = right\"", s)
	}
	return left, right, nil
}

// typed narrows a raw answer to int or float where it parses as one.
func typed(raw string) any {
	if i, err := strconv.Atoi(raw); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}
