package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/fatih/color"

	"github.com/liteplan/liteplan/pkg/client"
)

var (
	app  = kingpin.New("liteplan", "Lightweight project planner with agent and task management")
	addr = app.Flag("addr", "Base URL of the planner server").Default("http://localhost:8080").Envar("LITEPLAN_ADDR").String()

	// Agent commands
	agentCmd = app.Command("agent", "Agent management commands")

	agentCreateCmd  = agentCmd.Command("create", "Create a new agent")
	agentCreateName = agentCreateCmd.Arg("name", "Agent name").Required().String()
	agentCreateRole = agentCreateCmd.Flag("role", "Agent role").Default("").String()

	agentListCmd = agentCmd.Command("list", "List all agents")

	agentShowCmd = agentCmd.Command("show", "Show agent details")
	agentShowID  = agentShowCmd.Arg("id", "Agent ID").Required().String()

	// Task commands
	taskCmd = app.Command("task", "Task management commands")

	taskCreateCmd      = taskCmd.Command("create", "Create a new task")
	taskCreateTitle    = taskCreateCmd.Arg("title", "Task title").Required().String()
	taskCreateDesc     = taskCreateCmd.Flag("description", "Task description").Default("").String()
	taskCreatePriority = taskCreateCmd.Flag("priority", "Task priority (low/medium/high)").Default("").String()

	taskListCmd        = taskCmd.Command("list", "List tasks")
	taskListStatus     = taskListCmd.Flag("status", "Filter by status").Default("").String()
	taskListAssignedTo = taskListCmd.Flag("assigned-to", "Filter by assigned agent ID").Default("").String()
	taskListPriority   = taskListCmd.Flag("priority", "Filter by priority").Default("").String()

	taskShowCmd = taskCmd.Command("show", "Show task details")
	taskShowID  = taskShowCmd.Arg("id", "Task ID").Required().String()

	taskUpdateCmd      = taskCmd.Command("update", "Update task fields")
	taskUpdateID       = taskUpdateCmd.Arg("id", "Task ID").Required().String()
	taskUpdateTitle    = taskUpdateCmd.Flag("title", "New title").String()
	taskUpdateDesc     = taskUpdateCmd.Flag("description", "New description").String()
	taskUpdatePriority = taskUpdateCmd.Flag("priority", "New priority").String()

	taskDeleteCmd = taskCmd.Command("delete", "Delete a task")
	taskDeleteID  = taskDeleteCmd.Arg("id", "Task ID").Required().String()

	taskStatusCmd    = taskCmd.Command("status", "Transition task status")
	taskStatusID     = taskStatusCmd.Arg("id", "Task ID").Required().String()
	taskStatusStatus = taskStatusCmd.Arg("status", "New status (todo/in_progress/review/done)").Required().String()

	taskAssignCmd     = taskCmd.Command("assign", "Assign a task to an agent")
	taskAssignID      = taskAssignCmd.Arg("id", "Task ID").Required().String()
	taskAssignAgentID = taskAssignCmd.Arg("agent-id", "Agent ID").Required().String()

	// Dashboard
	dashboardCmd = app.Command("dashboard", "Show task summary counts")
)

func main() {
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	c := client.New(*addr)

	var err error
	switch command {
	case agentCreateCmd.FullCommand():
		err = runAgentCreate(ctx, c)
	case agentListCmd.FullCommand():
		err = runAgentList(ctx, c)
	case agentShowCmd.FullCommand():
		err = runAgentShow(ctx, c)
	case taskCreateCmd.FullCommand():
		err = runTaskCreate(ctx, c)
	case taskListCmd.FullCommand():
		err = runTaskList(ctx, c)
	case taskShowCmd.FullCommand():
		err = runTaskShow(ctx, c)
	case taskUpdateCmd.FullCommand():
		err = runTaskUpdate(ctx, c)
	case taskDeleteCmd.FullCommand():
		err = runTaskDelete(ctx, c)
	case taskStatusCmd.FullCommand():
		err = runTaskStatus(ctx, c)
	case taskAssignCmd.FullCommand():
		err = runTaskAssign(ctx, c)
	case dashboardCmd.FullCommand():
		err = runDashboard(ctx, c)
	}
	if err != nil {
		color.Red("error: %v", err)
		os.Exit(1)
	}
}

func runAgentCreate(ctx context.Context, c *client.Client) error {
	a, err := c.CreateAgent(ctx, *agentCreateName, *agentCreateRole)
	if err != nil {
		return err
	}
	color.Green("created agent %s", a.ID)
	printAgent(a)
	return nil
}

func runAgentList(ctx context.Context, c *client.Client) error {
	agents, err := c.ListAgents(ctx)
	if err != nil {
		return err
	}
	for i := range agents {
		printAgent(&agents[i])
	}
	fmt.Printf("%d agent(s)\n", len(agents))
	return nil
}

func runAgentShow(ctx context.Context, c *client.Client) error {
	a, err := c.GetAgent(ctx, *agentShowID)
	if err != nil {
		return err
	}
	printAgent(a)
	return nil
}

func runTaskCreate(ctx context.Context, c *client.Client) error {
	t, err := c.CreateTask(ctx, client.CreateTaskParams{
		Title:       *taskCreateTitle,
		Description: *taskCreateDesc,
		Priority:    *taskCreatePriority,
	})
	if err != nil {
		return err
	}
	color.Green("created task %s", t.ID)
	printTask(t)
	return nil
}

func runTaskList(ctx context.Context, c *client.Client) error {
	tasks, err := c.ListTasks(ctx, client.ListTasksParams{
		Status:     *taskListStatus,
		AssignedTo: *taskListAssignedTo,
		Priority:   *taskListPriority,
	})
	if err != nil {
		return err
	}
	for i := range tasks {
		printTask(&tasks[i])
	}
	fmt.Printf("%d task(s)\n", len(tasks))
	return nil
}

func runTaskShow(ctx context.Context, c *client.Client) error {
	t, err := c.GetTask(ctx, *taskShowID)
	if err != nil {
		return err
	}
	printTask(t)
	return nil
}

func runTaskUpdate(ctx context.Context, c *client.Client) error {
	params := client.UpdateTaskParams{}
	if *taskUpdateTitle != "" {
		params.Title = taskUpdateTitle
	}
	if *taskUpdateDesc != "" {
		params.Description = taskUpdateDesc
	}
	if *taskUpdatePriority != "" {
		params.Priority = taskUpdatePriority
	}
	t, err := c.UpdateTask(ctx, *taskUpdateID, params)
	if err != nil {
		return err
	}
	printTask(t)
	return nil
}

func runTaskDelete(ctx context.Context, c *client.Client) error {
	if err := c.DeleteTask(ctx, *taskDeleteID); err != nil {
		return err
	}
	color.Green("deleted task %s", *taskDeleteID)
	return nil
}

func runTaskStatus(ctx context.Context, c *client.Client) error {
	t, err := c.UpdateTaskStatus(ctx, *taskStatusID, *taskStatusStatus)
	if err != nil {
		return err
	}
	printTask(t)
	return nil
}

func runTaskAssign(ctx context.Context, c *client.Client) error {
	t, err := c.AssignTask(ctx, *taskAssignID, *taskAssignAgentID)
	if err != nil {
		return err
	}
	printTask(t)
	return nil
}

func runDashboard(ctx context.Context, c *client.Client) error {
	d, err := c.GetDashboard(ctx)
	if err != nil {
		return err
	}
	color.New(color.Bold).Printf("total: %d\n", d.Total)
	fmt.Println("by status:")
	for _, s := range []string{"todo", "in_progress", "review", "done"} {
		fmt.Printf("  %-12s %d\n", s, d.ByStatus[s])
	}
	fmt.Println("by priority:")
	for _, p := range []string{"low", "medium", "high"} {
		fmt.Printf("  %-12s %d\n", p, d.ByPriority[p])
	}
	return nil
}

func printAgent(a *client.Agent) {
	color.New(color.Bold).Printf("%s", a.ID)
	fmt.Printf("  %s (%s)\n", a.Name, a.Role)
}

func printTask(t *client.Task) {
	color.New(color.Bold).Printf("%s", t.ID)
	fmt.Printf("  [%s/%s] %s\n", t.Status, t.Priority, t.Title)
	if t.Description != "" {
		fmt.Printf("    %s\n", t.Description)
	}
	if t.AssignedTo != nil {
		fmt.Printf("    assigned to %s (%s)\n", t.AssignedTo.Name, t.AssignedTo.Role)
	}
}
