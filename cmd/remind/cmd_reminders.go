package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/user/remind-me/personal/internal/dto"
	"github.com/user/remind-me/personal/internal/models"
	"github.com/user/remind-me/personal/internal/views"
)

var (
	addDescription string
	addType        string
	addPriority    string
	addRecurring   string
	addMeetingLink string

	listView  string
	listLimit int

	editTitle       string
	editDescription string
	editWhen        string
	editType        string
	editPriority    string
)

// addCmd creates a reminder
var addCmd = &cobra.Command{
	Use:   "add <title> <when>",
	Short: "Add a reminder",
	Long: `Add a reminder due at <when>, given as "YYYY-MM-DD HH:MM" or RFC 3339.
The due time must be in the future.`,
	Args: cobra.ExactArgs(2),
	RunE: runAdd,
}

// listCmd prints one of the reminder views
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List reminders",
	RunE:  runList,
}

var doneCmd = &cobra.Command{
	Use:   "done <id>",
	Short: "Toggle a reminder between completed and active",
	Args:  cobra.ExactArgs(1),
	RunE:  runDone,
}

var editCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Change fields of a reminder",
	Args:  cobra.ExactArgs(1),
	RunE:  runEdit,
}

var rmCmd = &cobra.Command{
	Use:     "rm <id>",
	Aliases: []string{"delete"},
	Short:   "Delete a reminder",
	Args:    cobra.ExactArgs(1),
	RunE:    runRemove,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show dashboard counters",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	addCmd.Flags().StringVarP(&addDescription, "description", "d", "", "description")
	addCmd.Flags().StringVarP(&addType, "type", "t", string(models.TypeGeneral), "general, meeting, birthday or task")
	addCmd.Flags().StringVarP(&addPriority, "priority", "p", string(models.PriorityMedium), "low, medium or high")
	addCmd.Flags().StringVar(&addRecurring, "repeat", "", "daily, weekly, monthly or yearly")
	addCmd.Flags().StringVar(&addMeetingLink, "link", "", "meeting link")

	listCmd.Flags().StringVar(&listView, "view", "all", "all, upcoming, today or overdue")
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 0, "show at most n reminders")

	editCmd.Flags().StringVar(&editTitle, "title", "", "new title")
	editCmd.Flags().StringVarP(&editDescription, "description", "d", "", "new description")
	editCmd.Flags().StringVar(&editWhen, "when", "", "new due time")
	editCmd.Flags().StringVarP(&editType, "type", "t", "", "new type")
	editCmd.Flags().StringVarP(&editPriority, "priority", "p", "", "new priority")
}

func runAdd(cmd *cobra.Command, args []string) error {
	when, err := parseWhen(args[1])
	if err != nil {
		return err
	}

	req := dto.CreateReminderRequest{
		Title:    args[0],
		Type:     models.ReminderType(addType),
		DateTime: when,
		Priority: models.Priority(addPriority),
	}
	if !req.Type.IsValid() {
		return fmt.Errorf("unknown type %q", addType)
	}
	if !req.Priority.IsValid() {
		return fmt.Errorf("unknown priority %q", addPriority)
	}
	if addDescription != "" {
		req.Description = &addDescription
	}
	if addMeetingLink != "" {
		req.MeetingLink = &addMeetingLink
	}
	if addRecurring != "" {
		pattern := models.RecurringPattern(addRecurring)
		if !pattern.IsValid() {
			return fmt.Errorf("unknown repeat pattern %q", addRecurring)
		}
		req.IsRecurring = true
		req.RecurringPattern = &pattern
	}
	if err := req.Validate(session.now()); err != nil {
		return err
	}

	w, err := session.writer(cmd.Context())
	if err != nil {
		return err
	}
	reminder, persisted, err := w.Add(cmd.Context(), req)
	if err != nil {
		return err
	}
	warnIfNotSaved(persisted)
	fmt.Printf("Added %s  %s\n", shortID(reminder), reminder.Title)
	return nil
}

func runList(_ *cobra.Command, _ []string) error {
	now := session.now()
	var reminders []models.Reminder
	switch listView {
	case "all":
		reminders = session.store.All()
	case "upcoming":
		reminders = session.store.Upcoming(now)
	case "today":
		reminders = session.store.Today(now)
	case "overdue":
		reminders = session.store.Overdue(now)
	default:
		return fmt.Errorf("unknown view %q", listView)
	}

	reminders = views.Limit(reminders, listLimit)
	if len(reminders) == 0 {
		fmt.Println("No reminders.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDUE\tSTATE\tTYPE\tPRIORITY\tTITLE")
	for _, r := range reminders {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			shortID(r),
			r.DateTime.In(session.loc).Format("Mon Jan 2 15:04"),
			r.State(now),
			r.Type,
			r.Priority,
			r.Title,
		)
	}
	return w.Flush()
}

func runDone(cmd *cobra.Command, args []string) error {
	id, err := resolveID(args[0])
	if err != nil {
		return err
	}
	w, err := session.writer(cmd.Context())
	if err != nil {
		return err
	}
	reminder, persisted, err := w.Toggle(cmd.Context(), id)
	if err != nil {
		return describe(err, args[0])
	}
	warnIfNotSaved(persisted)

	state := "active"
	if reminder.IsCompleted {
		state = "completed"
	}
	fmt.Printf("%s  %s is now %s\n", shortID(reminder), reminder.Title, state)
	return nil
}

func runEdit(cmd *cobra.Command, args []string) error {
	id, err := resolveID(args[0])
	if err != nil {
		return err
	}

	var req dto.UpdateReminderRequest
	flags := cmd.Flags()
	if flags.Changed("title") {
		req.Title = &editTitle
	}
	if flags.Changed("description") {
		req.Description = &editDescription
	}
	if flags.Changed("when") {
		when, err := parseWhen(editWhen)
		if err != nil {
			return err
		}
		req.DateTime = &when
	}
	if flags.Changed("type") {
		t := models.ReminderType(editType)
		if !t.IsValid() {
			return fmt.Errorf("unknown type %q", editType)
		}
		req.Type = &t
	}
	if flags.Changed("priority") {
		p := models.Priority(editPriority)
		if !p.IsValid() {
			return fmt.Errorf("unknown priority %q", editPriority)
		}
		req.Priority = &p
	}
	if err := req.Validate(); err != nil {
		return err
	}

	if req.ToPatch().IsEmpty() {
		return fmt.Errorf("nothing to change, pass at least one flag")
	}

	w, err := session.writer(cmd.Context())
	if err != nil {
		return err
	}
	reminder, persisted, err := w.Update(cmd.Context(), id, req)
	if err != nil {
		return describe(err, args[0])
	}
	warnIfNotSaved(persisted)
	fmt.Printf("Updated %s  %s\n", shortID(reminder), reminder.Title)
	return nil
}

func runRemove(cmd *cobra.Command, args []string) error {
	id, err := resolveID(args[0])
	if err != nil {
		return err
	}
	w, err := session.writer(cmd.Context())
	if err != nil {
		return err
	}
	persisted, err := w.Remove(cmd.Context(), id)
	if err != nil {
		return describe(err, args[0])
	}
	warnIfNotSaved(persisted)
	fmt.Printf("Deleted %s\n", strings.SplitN(id.String(), "-", 2)[0])
	return nil
}

func runStats(_ *cobra.Command, _ []string) error {
	now := session.now()
	reminders := session.store.Snapshot()
	s := views.Summarize(reminders, now)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Today\t%d\n", s.Today)
	fmt.Fprintf(w, "Upcoming\t%d\n", s.Upcoming)
	fmt.Fprintf(w, "Overdue\t%d\n", s.Overdue)
	fmt.Fprintf(w, "Completed\t%d\n", s.Completed)
	fmt.Fprintf(w, "Total\t%d\n", s.Total)
	if err := w.Flush(); err != nil {
		return err
	}

	next := views.Limit(views.Upcoming(reminders, now), 5)
	if len(next) == 0 {
		return nil
	}
	fmt.Println("\nNext up:")
	for _, r := range next {
		fmt.Printf("  %s  %s  (in %s)\n",
			r.DateTime.In(session.loc).Format("Mon Jan 2 15:04"),
			r.Title,
			r.DateTime.Sub(now).Round(time.Minute))
	}
	return nil
}

func describe(err error, arg string) error {
	if errors.Is(err, errNotFound) {
		return fmt.Errorf("reminder %s not found", arg)
	}
	return err
}

func shortID(r models.Reminder) string {
	return strings.SplitN(r.ID.String(), "-", 2)[0]
}
