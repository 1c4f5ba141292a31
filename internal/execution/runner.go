package execution

import (
	"context"
	"fmt"
	"strings"

	"github.com/abhishekK50/wardenxt/internal/runbook"
	"github.com/abhishekK50/wardenxt/internal/safety"
)

// Runner produces the output of a command that has already passed the
// safety classifier. Only the Controller calls a Runner.
type Runner interface {
	Name() string
	Run(ctx context.Context, cmd runbook.Command) (string, error)
}

// simulation is one row of the simulated output table. Every substring in
// match must appear in the lowercased command.
type simulation struct {
	match  []string
	output string
}

var simulations = []simulation{
	{[]string{"kubectl get pods"}, `NAME                          READY   STATUS    RESTARTS   AGE
api-service-7d4b8f9c6-abc12   1/1     Running   0          5m
api-service-7d4b8f9c6-def34   1/1     Running   0          5m
api-service-7d4b8f9c6-ghi56   1/1     Running   0          5m`},
	{[]string{"kubectl describe pod"}, `Name:         api-service-7d4b8f9c6-abc12
Namespace:    production
Status:       Running
IP:           10.244.0.15
Containers:
  api:
    Image:          api-service:v3.2.1
    State:          Running
Events:           <none>`},
	{[]string{"kubectl logs"}, `INFO Starting API server on port 8000
INFO Connected to database
INFO Health check endpoint ready
INFO Server ready to accept requests`},
	{[]string{"kubectl rollout undo"}, "deployment.apps/api-service rolled back"},
	{[]string{"kubectl rollout restart"}, "deployment.apps/api-service restarted"},
	{[]string{"kubectl rollout status"}, `deployment "api-service" successfully rolled out`},
	{[]string{"kubectl scale"}, "deployment.apps/api-service scaled"},
	{[]string{"kubectl patch"}, "configmap/api-config patched"},
	{[]string{"kubectl top"}, `NAME                          CPU(cores)   MEMORY(bytes)
api-service-7d4b8f9c6-abc12   250m         512Mi`},
	{[]string{"docker ps"}, `CONTAINER ID   IMAGE               STATUS         PORTS
a1b2c3d4e5f6   api-service:latest  Up 2 hours     0.0.0.0:8000->8000/tcp`},
	{[]string{"docker logs"}, `INFO: Starting container
INFO: Application ready`},
	{[]string{"docker restart"}, "api-service"},
	{[]string{"psql", "select count", "pg_stat_activity"}, ` count
-------
    45
(1 row)`},
	{[]string{"psql", "select count"}, ` count
-------
  1234
(1 row)`},
	{[]string{"psql", "select"}, ` id | status | created_at
----+--------+------------
  1 | active | 2024-01-30
(1 row)`},
	{[]string{"systemctl status"}, `● api-service.service - API Service
   Loaded: loaded (/lib/systemd/system/api-service.service; enabled)
   Active: active (running) since Tue 2024-01-30 10:00:00 UTC; 2h ago`},
	{[]string{"systemctl restart"}, "Service restarted successfully"},
	{[]string{"ps aux"}, `USER       PID %CPU %MEM    VSZ   RSS TTY      STAT START   TIME COMMAND
www-data  1234  2.5 15.3 987654 654321 ?     Ssl  10:00   0:45 /usr/bin/python3 app.py`},
	{[]string{"df -h"}, `Filesystem      Size  Used Avail Use% Mounted on
/dev/sda1        50G   31G   19G  62% /`},
	{[]string{"free"}, `              total        used        free
Mem:           7.7G        5.1G        2.6G`},
	{[]string{"ping"}, `PING api.example.com (1.2.3.4) 56(84) bytes of data.
64 bytes from 1.2.3.4: icmp_seq=1 ttl=64 time=0.5 ms
1 packets transmitted, 1 received, 0% packet loss`},
	{[]string{"curl", "health"}, `{"status": "healthy", "version": "3.2.1"}`},
	{[]string{"curl"}, `{"success": true}`},
	{[]string{"dig"}, "api.example.com.  300  IN  A  1.2.3.4"},
}

// SimulatedRunner returns deterministic, plausible output keyed by
// recognizable command substrings. It never touches real infrastructure.
type SimulatedRunner struct{}

// Name implements Runner.
func (SimulatedRunner) Name() string { return "simulated" }

// Run implements Runner. Unrecognized commands fall back to the command's
// expected output hint, then to a generic placeholder.
func (SimulatedRunner) Run(ctx context.Context, cmd runbook.Command) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	lower := strings.ToLower(safety.Normalize(cmd.Command))
	for _, sim := range simulations {
		if containsAll(lower, sim.match) {
			return sim.output, nil
		}
	}

	if cmd.ExpectedOutput != "" {
		return cmd.ExpectedOutput, nil
	}
	return fmt.Sprintf("Command executed successfully:\n%s\n\n[Simulated output]", cmd.Command), nil
}

func containsAll(s string, subs []string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
