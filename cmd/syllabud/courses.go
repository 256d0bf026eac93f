package main

import (
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ye-allison/SyllaBud/internal/course"
	"github.com/ye-allison/SyllaBud/internal/dashboard"
	"github.com/ye-allison/SyllaBud/internal/extract"
)

// --- courses command ---

var coursesCmd = &cobra.Command{
	Use:   "courses",
	Short: "Manage courses",
}

var coursesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all courses",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		courses, err := a.tracker.List(cmd.Context())
		if err != nil {
			return err
		}
		if len(courses) == 0 {
			fmt.Println("No courses yet. Add one with: syllabud courses add")
			return nil
		}

		fmt.Println("Courses:")
		fmt.Println()
		for _, c := range courses {
			p := dashboard.CourseProgress(c)
			icon := " "
			if c.Status() == course.StatusAnalyzed {
				icon = "*"
			}
			fmt.Printf("  [%s] %s %s\n", c.ID, icon, c.Name)
			if p.HasTasks {
				fmt.Printf("        %d%% complete (%d/%d tasks)\n", p.Percent, p.Completed, p.Total)
			}
		}
		return nil
	},
}

var coursesAddCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Add an empty course",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requirePersistent(); err != nil {
			return err
		}
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		name := course.DefaultName
		if len(args) > 0 {
			name = args[0]
		}
		c, err := a.tracker.Add(cmd.Context(), name)
		if err != nil {
			return err
		}
		fmt.Printf("Added course [%s]: %s\n", c.ID, c.Name)
		return nil
	},
}

var coursesRenameCmd = &cobra.Command{
	Use:   "rename [id] [name]",
	Short: "Rename a course",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requirePersistent(); err != nil {
			return err
		}
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		c, err := a.tracker.Rename(cmd.Context(), args[0], args[1])
		if err != nil {
			return courseErr(args[0], err)
		}
		fmt.Printf("Renamed course [%s]: %s\n", c.ID, c.Name)
		return nil
	},
}

var coursesDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a course",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requirePersistent(); err != nil {
			return err
		}
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		c, err := a.tracker.Get(cmd.Context(), args[0])
		if err != nil {
			return courseErr(args[0], err)
		}
		if err := a.tracker.Delete(cmd.Context(), c.ID); err != nil {
			return err
		}
		fmt.Printf("Deleted course [%s]: %s\n", c.ID, c.Name)
		return nil
	},
}

var coursesReuploadCmd = &cobra.Command{
	Use:   "reupload [id]",
	Short: "Clear a course's syllabus so a new one can be ingested",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requirePersistent(); err != nil {
			return err
		}
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		c, err := a.tracker.Reupload(cmd.Context(), args[0])
		if err != nil {
			return courseErr(args[0], err)
		}
		fmt.Printf("Course [%s] %s is ready for a new syllabus\n", c.ID, c.Name)
		return nil
	},
}

var coursesToggleCmd = &cobra.Command{
	Use:   "toggle [id] [deliverable]",
	Short: "Toggle a deliverable's completion",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requirePersistent(); err != nil {
			return err
		}
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		c, err := a.tracker.Get(cmd.Context(), args[0])
		if err != nil {
			return courseErr(args[0], err)
		}
		done := !c.IsDone(args[1])
		if _, err := a.tracker.SetCompletion(cmd.Context(), c.ID, args[1], done); err != nil {
			if errors.Is(err, course.ErrUnknownDeliverable) {
				return fmt.Errorf("course %s has no deliverable %q", c.ID, args[1])
			}
			return err
		}
		state := "not done"
		if done {
			state = "done"
		}
		fmt.Printf("%s: %s marked %s\n", c.Name, args[1], state)
		return nil
	},
}

func init() {
	coursesCmd.AddCommand(coursesListCmd)
	coursesCmd.AddCommand(coursesAddCmd)
	coursesCmd.AddCommand(coursesRenameCmd)
	coursesCmd.AddCommand(coursesDeleteCmd)
	coursesCmd.AddCommand(coursesReuploadCmd)
	coursesCmd.AddCommand(coursesToggleCmd)
}

// --- ingest command ---

var ingestCourseID string

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Summarize a syllabus file into a course",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading syllabus: %w", err)
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		id := ingestCourseID
		if id == "" {
			c, err := a.tracker.Add(ctx, course.DefaultName)
			if err != nil {
				return err
			}
			id = c.ID
		}

		doc := extract.Document{
			Filename:    filepath.Base(args[0]),
			ContentType: mime.TypeByExtension(filepath.Ext(args[0])),
			Data:        data,
		}
		result, err := a.ingestor.Ingest(ctx, id, doc)
		for i, step := range result.Steps {
			fmt.Printf("\nStep %d/4: %s\n", i+1, step.Name)
			if step.Err != nil {
				fmt.Printf("  Error: %v\n", step.Err)
			} else {
				fmt.Printf("  %s\n", step.Summary)
			}
		}
		if err != nil {
			if ingestCourseID == "" {
				_ = a.tracker.Delete(ctx, id)
			}
			return err
		}

		printCourse(result.Course)
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestCourseID, "course", "", "Existing empty course to ingest into (default: new course)")
}

func printCourse(c course.Course) {
	fmt.Printf("\n%s [%s]\n", c.Name, c.ID)

	if len(c.Weekly) > 0 {
		fmt.Println("\nWeekly Schedule:")
		for _, w := range c.Weekly {
			fmt.Printf("  %-10s %s\n", w.Week, w.Content)
		}
	}
	if len(c.Deliverables) > 0 {
		fmt.Println("\nMethods of Evaluation:")
		for _, d := range c.Deliverables {
			mark := "[ ]"
			if c.IsDone(d.Name) {
				mark = "[x]"
			}
			fmt.Printf("  %s %-30s %-6s %s\n", mark, d.Name, d.Weight, d.DueDate)
		}
	}
}

func courseErr(id string, err error) error {
	switch {
	case errors.Is(err, course.ErrNotFound):
		return fmt.Errorf("course %s not found", id)
	case errors.Is(err, course.ErrInvalidName):
		return errors.New("course name must not be blank")
	}
	return err
}

// --- deadlines command ---

var (
	deadlinesFormat string
	deadlinesOutput string
)

var deadlinesCmd = &cobra.Command{
	Use:   "deadlines",
	Short: "Show or export upcoming deadlines",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		courses, err := a.tracker.List(cmd.Context())
		if err != nil {
			return err
		}
		pending := dashboard.UpcomingDeadlines(courses)

		if deadlinesFormat == "" || strings.EqualFold(deadlinesFormat, "table") {
			if len(pending.Items) == 0 {
				fmt.Println("No upcoming deadlines found.")
				return nil
			}
			for _, d := range pending.Items {
				fmt.Printf("  %-18s %-30s %-30s %s\n", d.DueDate, d.CourseName, d.TaskName, d.Weight)
			}
			if !pending.Sorted {
				fmt.Println("\n(Some due dates could not be read; listed in course order.)")
			}
			return nil
		}

		return writeExport(a, deadlinesFormat, deadlinesOutput, pending.Items)
	},
}

func init() {
	deadlinesCmd.Flags().StringVarP(&deadlinesFormat, "format", "f", "", "Export format: ics, csv, xlsx or pdf (default: table)")
	deadlinesCmd.Flags().StringVarP(&deadlinesOutput, "output", "o", "", "Write the export to this file (default: deadlines.<format>)")
}
