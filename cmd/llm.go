package cmd

// cmd/llm.go — machine-readable context document for LLM onboarding.
//
// Usage:
//   tripwise llm                         # start bundle — paste into your LLM session
//   tripwise llm --topic start           # same as bare tripwise llm
//   tripwise llm --topic toc             # table of contents / two-step handshake
//   tripwise llm --topic pipeline        # stdin/stdout semantics
//   tripwise llm --topic commands        # full command reference
//   tripwise llm --topic data-model      # offer types, Result envelope
//   tripwise llm --topic examples        # verified end-to-end examples
//   tripwise llm --topic gotchas         # sharp edges and known gaps
//   tripwise llm --topic version         # build metadata
//   tripwise llm --topic toc,pipeline    # comma-separated multi-topic
//   tripwise llm --topic all             # everything (large context)

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// ─── Topic registry ───────────────────────────────────────────────────────────

type llmTopic struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

var topicRegistry = []llmTopic{
	{"start", "Curated onboarding bundle: commands + pipeline + gotchas + examples. One command, ready to work."},
	{"toc", "Topic index and LLM interaction guide. Use for the two-step handshake pattern."},
	{"commands", "Full command reference: all nouns, verbs, flags, output formats."},
	{"pipeline", "stdin/stdout semantics, JSONL offer format, chaining search into analyze."},
	{"data-model", "Core types: Offer, AnalysisResult, RouteOptimizationResult, Result envelope."},
	{"examples", "Verified end-to-end examples with real provider responses and confirmed output."},
	{"gotchas", "Sharp edges: missing prices, unparseable durations, factorial limits, rate pacing."},
	{"version", "Build metadata, Go version, platform. For provenance and reproducibility."},
}

// ─── Command ──────────────────────────────────────────────────────────────────

var llmTopicFlag string

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Emit a machine-readable context document for LLM onboarding",
	Long: `Emit a structured JSON document describing tripwise's commands, pipeline
semantics, verified examples, and known gotchas — formatted for efficient
LLM context window ingestion.

Bare 'tripwise llm' emits the curated start bundle — the minimum context an
LLM needs to work confidently with tripwise in a single command. Paste the
output into your LLM session and start asking questions.

Two-step handshake pattern (token-conservative):
  1. tripwise llm --topic toc
     Paste into your LLM session. The LLM identifies which topics it needs.
  2. tripwise llm --topic <requested topics>
     Paste the targeted output. The LLM confirms it is ready.
  3. Ask your question.

Topics:
  start       Curated onboarding bundle (default)
  toc         Topic index and interaction guide
  commands    Full command reference
  pipeline    stdin/stdout and JSONL semantics
  data-model  Offer types, Result envelope, missing-value handling
  examples    Verified real-world examples
  gotchas     Sharp edges and known limitations
  version     Build metadata and provenance
  all         Everything (for large context windows)`,
	Example: `  tripwise llm                             # start here — paste into your LLM session
  tripwise llm --topic toc                 # two-step handshake (token-conservative)
  tripwise llm --topic pipeline,gotchas    # surgical context
  tripwise llm --topic all | pbcopy        # full context for large windows`,
	RunE: func(cmd *cobra.Command, args []string) error {
		topics := parseLLMTopics(llmTopicFlag)
		doc := buildLLMDoc(topics)

		format := globalFlags.Format
		if format == "" {
			format = "json"
		}

		switch format {
		case "jsonl":
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetEscapeHTML(false)
			return enc.Encode(doc)
		default:
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			enc.SetEscapeHTML(false)
			return enc.Encode(doc)
		}
	},
}

func init() {
	rootCmd.AddCommand(llmCmd)
	llmCmd.Flags().StringVar(&llmTopicFlag, "topic", "start",
		"topic(s) to emit: start|toc|commands|pipeline|data-model|examples|gotchas|version|all (comma-separated)")
}

// ─── Topic parsing ────────────────────────────────────────────────────────────

func parseLLMTopics(flag string) []string {
	if flag == "" {
		flag = "start"
	}
	if flag == "all" {
		all := make([]string, len(topicRegistry))
		for i, t := range topicRegistry {
			all[i] = t.Name
		}
		return all
	}
	parts := strings.Split(flag, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}

// ─── Document builder ─────────────────────────────────────────────────────────

func buildLLMDoc(topics []string) map[string]any {
	set := make(map[string]bool, len(topics))
	for _, t := range topics {
		set[t] = true
	}

	doc := map[string]any{
		"tool":    "tripwise",
		"version": Version,
		"llm_note": "This document was generated by `tripwise llm`. " +
			"It is the authoritative source for tripwise's CLI semantics. " +
			"Prefer it over general knowledge about travel APIs or similar tools.",
	}

	if set["start"] {
		doc["start"] = buildStart()
	}
	if set["toc"] {
		doc["toc"] = buildTOC()
	}
	if set["data-model"] {
		doc["data_model"] = buildDataModel()
	}
	if set["commands"] {
		doc["commands"] = buildCommands()
	}
	if set["pipeline"] {
		doc["pipeline"] = buildPipeline()
	}
	if set["examples"] {
		doc["examples"] = buildExamples()
	}
	if set["gotchas"] {
		doc["gotchas"] = buildGotchas()
	}
	if set["version"] {
		doc["version_detail"] = map[string]any{
			"version":    Version,
			"build_time": BuildTime,
			"note":       "Injected at build time via -ldflags. Fallback is the source default.",
		}
	}

	return doc
}

// ─── Start ────────────────────────────────────────────────────────────────────

func buildStart() map[string]any {
	return map[string]any{
		"description": "Curated onboarding bundle for immediate productive use. " +
			"Contains the full command reference, pipeline semantics, verified examples, " +
			"and known gotchas — the minimum context an LLM needs to work confidently with tripwise.",
		"suggested_prompt": "I am pasting the output of `tripwise llm`. " +
			"This is the authoritative reference for a CLI called `tripwise` — " +
			"a Go tool that searches flights, trains, and buses, recommends the cheapest and fastest option, " +
			"and optimizes multi-city visiting orders. " +
			"Three rules to internalize before we start: " +
			"(1) always add --format jsonl on 'search' when piping into 'analyze' — it defaults to table format and will break the pipe without it; " +
			"(2) cheapest ranks only priced offers and fastest only parseable durations — SNCF train offers often carry no price and compete on speed alone; " +
			"(3) 'optimize' is factorial in the city count and hard-capped at 8 cities. " +
			"When you are ready to help me plan travel, say so.",
		"commands": buildCommands(),
		"pipeline": buildPipeline(),
		"gotchas":  buildGotchas(),
		"examples": buildExamples(),
	}
}

// ─── TOC ──────────────────────────────────────────────────────────────────────

func buildTOC() map[string]any {
	topics := make([]map[string]any, len(topicRegistry))
	for i, t := range topicRegistry {
		topics[i] = map[string]any{
			"name":        t.Name,
			"description": t.Description,
			"fetch":       fmt.Sprintf("tripwise llm --topic %s", t.Name),
		}
	}
	return map[string]any{
		"description": "tripwise is a Go CLI for multi-modal travel search. " +
			"It aggregates flights (Amadeus), trains (SNCF), and buses (FlixBus), " +
			"recommends cheapest/fastest options with explained discards, and finds " +
			"the best visiting order for multi-city trips. " +
			"Every command emits a uniform Result envelope; offers flow between commands as JSONL.",
		"topics":       topics,
		"quick_start":  "tripwise llm  — emits the curated start bundle; paste into your LLM session and begin",
		"multi_topic":  "tripwise llm --topic pipeline,gotchas",
		"full_context": "tripwise llm --topic all",
		"prompt_template": "I am pasting the output of `tripwise llm --topic <topics>`. " +
			"This is the authoritative reference for a CLI called tripwise. " +
			"Use it to answer my questions about searching and comparing travel options. " +
			"Tell me when you are ready.",
	}
}

// ─── Data model ───────────────────────────────────────────────────────────────

func buildDataModel() map[string]any {
	return map[string]any{
		"offer": map[string]any{
			"type": "Offer",
			"fields": map[string]any{
				"mode":           "flight | train | bus",
				"provider":       "Amadeus | SNCF | FlixBus",
				"price":          "float64 or null — null means the provider returned no fare, NOT free",
				"currency":       "ISO code, defaults to EUR when absent",
				"duration":       "ISO-8601 style, e.g. 'PT5H30M'. May be empty or unparseable.",
				"departure_time": "provider-native timestamp string",
				"arrival_time":   "provider-native timestamp string",
				"origin":         "location code or city name as searched",
				"destination":    "location code or city name as searched",
				"stops":          "int or null — flight segments minus one",
				"transfers":      "int or null — train/bus changes",
				"carriers":       "[]string — operating carrier codes, sorted, deduped",
			},
			"null_convention": "A null price excludes the offer from cheapest ranking but it still competes on speed. An empty or unparseable duration excludes it from fastest ranking but it still competes on price.",
		},
		"analysis_result": map[string]any{
			"type": "AnalysisResult",
			"fields": map[string]any{
				"stats":       "total_options, with_price, with_duration counts",
				"cheapest":    "the single minimum-price offer (first wins ties)",
				"fastest":     "the single minimum-duration offer, null if no duration parsed",
				"same_option": "true when one offer is both cheapest and fastest",
				"discarded":   "every other offer with human-readable reasons including deltas, e.g. '50.00 EUR more expensive than cheapest'",
			},
		},
		"route_optimization_result": map[string]any{
			"type": "RouteOptimizationResult",
			"fields": map[string]any{
				"stats":      "cities, start_date, permutations_total, routes_analyzed, permutations_failed",
				"cheapest":   "complete route (ordered legs, each with its chosen offer) with minimum total price",
				"fastest":    "complete route with minimum total duration",
				"same_route": "true when one visiting order wins both axes",
				"discarded":  "other valid orders with aggregate reasons",
			},
			"leg_semantics": "Leg i departs start_date + i days. Each leg is represented by its cheapest priced offer. An order where any leg has zero priced offers is invalid and silently dropped (counted in permutations_failed).",
		},
		"result_envelope": map[string]any{
			"type": "Result",
			"fields": map[string]any{
				"kind":         "offers | analysis | route_optimization | itinerary",
				"generated_at": "time the command ran",
				"command":      "the command that produced this result",
				"data":         "typed payload; kind identifies what is inside",
				"warnings":     "[]string — non-fatal issues, e.g. one provider failed or is unconfigured",
				"stats":        "cache_hit, duration_ms, items",
			},
			"note": "All commands return this envelope with --format json. --format jsonl on 'search' emits bare offers, one per line, for piping.",
		},
		"jsonl_row": map[string]any{
			"description": "One line of JSONL emitted by 'search --format jsonl' and consumed by 'analyze'",
			"example":     `{"mode":"train","provider":"SNCF","price":null,"duration":"PT2H58M","origin":"MAD","destination":"BCN"}`,
		},
	}
}

// ─── Commands ─────────────────────────────────────────────────────────────────

func buildCommands() map[string]any {
	return map[string]any{
		"global_flags": map[string]any{
			"--format":      "table|json|jsonl|csv|md  (default: table)",
			"--out":         "write output to file instead of stdout",
			"--flights-key": "Amadeus API key override (also: AMADEUS_API_KEY env, config.json)",
			"--trains-key":  "SNCF API key override (also: SNCF_API_KEY env, config.json)",
			"--buses-key":   "RapidAPI key override (also: RAPIDAPI_KEY env, config.json)",
			"--timeout":     "HTTP request timeout e.g. 30s, 2m  (default: 30s)",
			"--rate":        "provider searches/sec client-side limit  (default: 2.0)",
			"--max-results": "max offers requested per provider  (default: 3)",
			"--verbose":     "show timing and cache stats after output",
			"--debug":       "log HTTP requests with API keys redacted",
			"--quiet":       "suppress all non-error output",
			"--no-cache":    "bypass local store reads",
			"--refresh":     "force re-fetch and overwrite cached entries",
		},
		"nouns": map[string]any{
			"search": map[string]any{
				"usage": "tripwise search <ORIGIN> <DESTINATION> --date YYYY-MM-DD",
				"description": "Search all configured providers for one leg, print offers sorted by price. " +
					"Accepts city names or 3-letter codes. Results cached by origin|destination|date.",
				"flags":   "--date YYYY-MM-DD (default tomorrow)  --no-store",
				"note":    "CRITICAL: defaults to table format. Always add --format jsonl when piping to analyze.",
				"example": "tripwise search MAD BCN --date 2026-09-14 --format jsonl",
			},
			"analyze": map[string]any{
				"usage":       "tripwise analyze  (reads offer JSONL from stdin)",
				"description": "Pick the single cheapest and single fastest offer; explain every discard with price/duration deltas. Needs no API keys.",
				"example":     "tripwise search MAD BCN --date 2026-09-14 --format jsonl | tripwise analyze",
			},
			"optimize": map[string]any{
				"usage":       "tripwise optimize <CITY> <CITY> [CITY...] --date YYYY-MM-DD",
				"description": "Evaluate every visiting order; recommend cheapest and fastest complete routes. Legs advance one day per city.",
				"limits":      "Hard cap 8 cities (factorial enumeration). Leg searches are sequential and rate-limited; shared legs searched once.",
				"example":     "tripwise optimize MAD BCN LIS --date 2026-09-14",
			},
			"itinerary": map[string]any{
				"description": "Persist named trip plans in the local store",
				"verbs": map[string]any{
					"save":   "tripwise itinerary save <NAME>  (JSON payload from stdin)",
					"load":   "tripwise itinerary load <NAME>",
					"list":   "tripwise itinerary list",
					"delete": "tripwise itinerary delete <NAME>",
				},
			},
			"cache": map[string]any{
				"description": "Manage local bbolt database",
				"verbs": map[string]any{
					"stats":   "tripwise cache stats  — bucket row counts and sizes",
					"list":    "tripwise cache list [--origin MAD]  — cached leg keys",
					"clear":   "tripwise cache clear --all  |  --bucket offers|itineraries",
					"compact": "tripwise cache compact  — rewrite DB to reclaim freed space",
				},
			},
			"config": map[string]any{
				"verbs": map[string]any{
					"init": "tripwise config init  — create config.json template",
					"get":  "tripwise config get [--show-secrets]",
					"set":  "tripwise config set <key> <value>",
				},
				"resolution_order": []string{
					"1. --flights-key / --trains-key / --buses-key CLI flags (highest priority)",
					"2. AMADEUS_API_KEY / SNCF_API_KEY / RAPIDAPI_KEY environment variables",
					"3. keys in config.json",
				},
				"db_path_resolution": []string{
					"1. TRIPWISE_DB_PATH environment variable",
					"2. db_path in config.json",
					"3. ~/.tripwise/tripwise.db (default)",
				},
			},
			"version": map[string]any{
				"usage": "tripwise version [--format json|jsonl]",
			},
		},
	}
}

// ─── Pipeline ─────────────────────────────────────────────────────────────────

func buildPipeline() map[string]any {
	return map[string]any{
		"model":         "Unix stdin/stdout. 'search --format jsonl' emits one offer per line; 'analyze' consumes that stream and prints a recommendation. 'itinerary save' consumes a JSON result from stdin.",
		"critical_rule": "search defaults to TABLE format even when piped. You MUST add --format jsonl on search or analyze will fail with 'invalid JSON' (table border characters are not JSON).",
		"jsonl_format": map[string]any{
			"one_object_per_line": true,
			"schema":              `{"mode":"flight","provider":"Amadeus","price":95.0,"currency":"EUR","duration":"PT1H25M","origin":"MAD","destination":"BCN"}`,
			"missing_price":       `{"mode":"train","provider":"SNCF","price":null,"duration":"PT2H58M","origin":"MAD","destination":"BCN"}`,
		},
		"correct_pipeline_pattern": "tripwise search MAD BCN --date 2026-09-14 --format jsonl | tripwise analyze",
		"wrong_pipeline_pattern":   "tripwise search MAD BCN --date 2026-09-14 | tripwise analyze  ← missing --format jsonl, will fail",
		"save_pattern":             "tripwise optimize MAD BCN LIS --date 2026-09-14 --format json | tripwise itinerary save summer-trip",
		"cached_source":            "Repeated searches for the same leg+date read from the local store — no network, no rate limiting. Use --refresh to force live data.",
	}
}

// ─── Examples ─────────────────────────────────────────────────────────────────

func buildExamples() map[string]any {
	return map[string]any{
		"examples": []map[string]any{
			{
				"name":        "Compare all modes for one leg",
				"command":     "tripwise search MAD BCN --date 2026-09-14 --format jsonl | tripwise analyze",
				"description": "Flight 95 EUR / PT1H25M, train unpriced / PT2H58M, bus 45 EUR / PT7H15M",
				"output": map[string]any{
					"cheapest":    map[string]any{"mode": "bus", "provider": "FlixBus", "price": 45.0},
					"fastest":     map[string]any{"mode": "flight", "provider": "Amadeus", "duration": "PT1H25M"},
					"same_option": false,
					"discarded_reasons": []string{
						"flight: 50.00 EUR more expensive than cheapest",
						"train: not the cheapest or fastest option",
						"bus: 5h 50m slower than fastest",
					},
				},
			},
			{
				"name":        "Three-city trip",
				"command":     "tripwise optimize MAD BCN LIS --date 2026-09-14",
				"description": "Evaluates all 6 visiting orders; legs depart Sep 14, 15 (one day per leg).",
				"output": map[string]any{
					"permutations_total": 6,
					"note":               "Orders where some leg had zero priced offers are counted in permutations_failed and excluded from ranking.",
				},
			},
			{
				"name":    "Save and recall a plan",
				"command": "tripwise optimize MAD BCN LIS --date 2026-09-14 --format json | tripwise itinerary save iberia && tripwise itinerary load iberia | jq .data.cheapest",
			},
		},
	}
}

// ─── Gotchas ──────────────────────────────────────────────────────────────────

func buildGotchas() map[string]any {
	return map[string]any{
		"critical": []map[string]any{
			{
				"id":      "format-jsonl-required",
				"title":   "Always --format jsonl on search when piping",
				"detail":  "search defaults to table format regardless of whether stdout is a terminal. Table output starts with '+---' border characters which are not valid JSON. analyze fails with a line-1 JSON error. This is the single most common mistake.",
				"wrong":   "tripwise search MAD BCN | tripwise analyze",
				"correct": "tripwise search MAD BCN --format jsonl | tripwise analyze",
			},
			{
				"id":     "null-price-not-free",
				"title":  "A null price means unknown, not zero",
				"detail": "SNCF journeys frequently return no fare. Such offers are excluded from cheapest ranking but still win fastest when their duration is best. They are never treated as 0 EUR.",
			},
			{
				"id":     "factorial-cap",
				"title":  "optimize is factorial and capped at 8 cities",
				"detail": "8 cities = 40320 visiting orders. The engine refuses more with 'too many cities'. A lower cap can be set via max_cities in config.json.",
			},
		},
		"data_quality": []map[string]any{
			{
				"id":     "unparseable-duration",
				"title":  "Unparseable durations are treated as infinitely slow",
				"detail": "A duration that doesn't match PT<H>H<M>M can never win the fastest axis, but the offer still competes on price. In route totals one unparseable leg poisons the whole order's duration.",
			},
			{
				"id":     "currency-mixing",
				"title":  "Price comparison is numeric, currencies are not converted",
				"detail": "Offers default to EUR when the provider omits a currency. Mixed-currency comparisons compare raw numbers; route totals are reported in EUR.",
			},
			{
				"id":     "one-day-per-leg",
				"title":  "optimize advances one day per leg",
				"detail": "Leg i departs start date + i days. This is a deliberate simplification — there is no same-day connection model.",
			},
		},
		"pipeline_tips": []map[string]any{
			{
				"id":     "cache-is-explicit",
				"title":  "The store is an accumulator, not a TTL cache",
				"detail": "Cached offer sets never expire. Prices go stale; use --refresh before booking decisions, and 'tripwise cache clear --bucket offers' to reset.",
			},
			{
				"id":     "analyze-is-terminal",
				"title":  "analyze does not emit offer JSONL",
				"detail": "analyze consumes the offer stream and prints a recommendation (table or Result JSON). You cannot pipe its output into another analyze.",
			},
		},
	}
}
