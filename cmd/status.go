package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

var serverURL string

var statusCmd = &cobra.Command{
	Use:   "status [run-id]",
	Short: "Query server status or a specific run",
	Long: `Queries the server for run status information.
If no run-id is provided, lists all runs.
If run-id is provided, shows detailed status for that run.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&serverURL, "server", "http://localhost:8080", "Server URL")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		// List all runs
		url := fmt.Sprintf("%s/api/v1/runs", serverURL)
		return listRuns(url)
	}

	// Get specific run status
	id := args[0]
	url := fmt.Sprintf("%s/api/v1/runs/%s/status", serverURL, id)
	return getRunStatus(url, id)
}

func listRuns(url string) error {
	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned error: %s", string(body))
	}

	var runs []map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&runs); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if len(runs) == 0 {
		fmt.Println("No runs found")
		return nil
	}

	fmt.Printf("Found %d run(s):\n\n", len(runs))
	for _, run := range runs {
		config := run["config"].(map[string]interface{})
		fmt.Printf("Run ID: %s\n", run["id"])
		fmt.Printf("  State: %s\n", run["state"])
		fmt.Printf("  Problem: %s\n", config["problem"])
		fmt.Printf("  Islands: %v\n", config["islands"])
		if run["bestFitness"] != nil {
			fmt.Printf("  Best fitness: %v\n", run["bestFitness"])
		}
		fmt.Println()
	}

	return nil
}

func getRunStatus(url, id string) error {
	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("run not found: %s", id)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned error: %s", string(body))
	}

	var status map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	// Display status
	fmt.Printf("Run: %s\n", status["id"])
	fmt.Printf("State: %s\n", status["state"])
	fmt.Println()

	config := status["config"].(map[string]interface{})
	fmt.Println("Configuration:")
	fmt.Printf("  Problem: %s\n", config["problem"])
	fmt.Printf("  Dimension: %v\n", config["dim"])
	fmt.Printf("  Islands: %v\n", config["islands"])
	fmt.Printf("  Population: %v\n", config["popSize"])
	fmt.Printf("  Deme size: %v\n", config["demeSize"])
	fmt.Printf("  Policy: %s\n", config["policy"])
	fmt.Printf("  Epochs: %v\n", config["epochs"])
	fmt.Printf("  Iterations: %v\n", config["iterations"])
	fmt.Println()

	fmt.Println("Progress:")
	fmt.Printf("  Epoch: %v\n", status["epoch"])
	if status["initialFitness"] != nil {
		fmt.Printf("  Initial fitness: %v\n", status["initialFitness"])
	}
	if status["bestFitness"] != nil {
		fmt.Printf("  Best fitness: %v\n", status["bestFitness"])
	}

	if status["elapsed"] != nil {
		elapsed := time.Duration(status["elapsed"].(float64) * float64(time.Second))
		fmt.Printf("  Elapsed: %s\n", elapsed.Round(time.Millisecond))
	}

	if status["eps"] != nil && status["eps"].(float64) > 0 {
		fmt.Printf("  Throughput: %.2f epochs/sec\n", status["eps"])
	}

	if status["error"] != nil && status["error"].(string) != "" {
		fmt.Printf("\nError: %s\n", status["error"])
	}

	return nil
}
