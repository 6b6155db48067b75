// Scripted baseline driver. Runs episodes against a live server over HTTP
// and prints a per-policy summary; useful as a smoke test and as a floor
// for learned agents.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"time"

	"gravitybench.ai/internal/protocol"
)

func main() {
	var (
		baseURL  = flag.String("url", "http://localhost:3000", "server base url")
		taskKind = flag.String("task", "gap", "task kind (gap|throw)")
		version  = flag.String("version", "v2", "task version (v1|v2)")
		policy   = flag.String("policy", "optimal", "policy (optimal|heuristic|random)")
		episodes = flag.Int("episodes", 10, "number of episodes")
		seed     = flag.Int64("seed", 1000, "base seed; episode i uses seed+i")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags)
	client := &http.Client{Timeout: 30 * time.Second}

	var wins int
	var totalReward float64
	for i := 0; i < *episodes; i++ {
		epSeed := *seed + int64(i)
		success, reward, steps, reason, err := runEpisode(client, *baseURL, *taskKind, *version, *policy, epSeed)
		if err != nil {
			logger.Fatalf("episode seed=%d: %v", epSeed, err)
		}
		if success {
			wins++
		}
		totalReward += reward
		logger.Printf("episode seed=%d success=%v steps=%d reason=%s reward=%.2f", epSeed, success, steps, reason, reward)
	}
	logger.Printf("policy=%s task=%s/%s episodes=%d success=%d/%d avg_reward=%.3f",
		*policy, *taskKind, *version, *episodes, wins, *episodes, totalReward/float64(*episodes))
}

func runEpisode(client *http.Client, baseURL, taskKind, version, policy string, seed int64) (bool, float64, int, string, error) {
	var reset protocol.ResetResponse
	err := postJSON(client, baseURL+"/reset", protocol.ResetRequest{
		Config: protocol.ResetConfig{Task: taskKind, TaskVersion: version, Seed: &seed},
	}, &reset)
	if err != nil {
		return false, 0, 0, "", err
	}
	if !reset.Success {
		return false, 0, 0, "", fmt.Errorf("reset rejected: %s (%s)", reset.Error, reset.Code)
	}

	rng := rand.New(rand.NewSource(seed))
	jumpThreshold := rng.Float64() * 1.2 // heuristic only
	obs := reset.Observation

	for step := 0; ; step++ {
		var action string
		if taskKind == "throw" {
			action = throwAction(obs)
		} else {
			action = gapAction(policy, step, jumpThreshold, rng, obs)
		}

		var resp protocol.StepResponse
		err := postJSON(client, baseURL+"/step", protocol.StepRequest{
			SessionID: reset.SessionID, Action: action,
		}, &resp)
		if err != nil {
			return false, 0, 0, "", err
		}
		if !resp.Success {
			return false, 0, 0, "", fmt.Errorf("step rejected: %s (%s)", resp.Error, resp.Code)
		}
		obs = resp.Observation
		if resp.Done {
			return resp.Info.TaskSuccess, resp.Info.TotalReward, resp.Info.Step, resp.Info.Reason, nil
		}
	}
}

// gapAction implements the three reference gap baselines.
func gapAction(policy string, step int, jumpThreshold float64, rng *rand.Rand, obs protocol.Observation) string {
	switch policy {
	case "optimal":
		// Run up, jump at the edge, keep steering forward in the air.
		if step < 6 {
			return "forward"
		}
		if step == 6 {
			return "jump"
		}
		return "forward"
	case "heuristic":
		pos := obsVec(obs, "agentPosition")
		gapStart := obsFloat(obs, "gapStart")
		if len(pos) == 3 && gapStart-pos[0] < jumpThreshold && obsBool(obs, "isGrounded") {
			return "jump"
		}
		return "forward"
	case "random":
		choices := []string{"forward", "idle", "jump", "back"}
		return choices[rng.Intn(len(choices))]
	default:
		return "idle"
	}
}

// throwAction walks to the block, picks it up, carries it toward the basket
// and throws with the strength hinted by the observation.
func throwAction(obs protocol.Observation) string {
	if obsBool(obs, "holdingBlock") {
		if obsFloat(obs, "distanceToBasket") <= 6.0 {
			if hint, ok := obs["optimalThrowStrength"].(string); ok && hint != "" {
				return hint
			}
			return "throw_medium"
		}
		return "forward"
	}
	if obsFloat(obs, "distanceToBlock") <= obsFloat(obs, "pickupRadius") {
		return "pick"
	}
	return "forward"
}

func obsFloat(obs protocol.Observation, key string) float64 {
	if v, ok := obs[key].(float64); ok {
		return v
	}
	return 0
}

func obsBool(obs protocol.Observation, key string) bool {
	v, _ := obs[key].(bool)
	return v
}

func obsVec(obs protocol.Observation, key string) []float64 {
	raw, ok := obs[key].([]any)
	if !ok {
		return nil
	}
	out := make([]float64, 0, len(raw))
	for _, e := range raw {
		f, ok := e.(float64)
		if !ok {
			return nil
		}
		out = append(out, f)
	}
	return out
}

func postJSON(client *http.Client, url string, body, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	resp, err := client.Post(url, "application/json", bytes.NewReader(b))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(out)
}
