package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/noah-isme/academic-portal-api/internal/models"
	"github.com/noah-isme/academic-portal-api/internal/service"
	"github.com/noah-isme/academic-portal-api/pkg/export"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type teacherRegistrar interface {
	RegisterTeacher(ctx context.Context, req service.RegisterTeacherRequest) (*models.TeacherInfo, error)
}

type snapshotRunner interface {
	Generate(ctx context.Context) (*models.SnapshotGenerationResult, error)
}

type leaderboardReader interface {
	Get(ctx context.Context, filter models.LeaderboardFilter) ([]models.LeaderboardEntry, bool, error)
}

type attendanceSyncer interface {
	SyncAttendance(ctx context.Context) (int, error)
}

type commandLine struct {
	out         io.Writer
	teachers    teacherRegistrar
	snapshots   snapshotRunner
	leaderboard leaderboardReader
	students    attendanceSyncer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  addteacher -email EMAIL -name NAME [-designation D] [-role teacher|admin] - create a teacher account, the password is prompted next")
	fmt.Fprintln(cli.out, "  snapshots - generate this week's growth snapshots")
	fmt.Fprintln(cli.out, "  leaderboard [-sort OGI|attendance|assignmentScore] [-course C] [-batch B] - print the leaderboard")
	fmt.Fprintln(cli.out, "  syncattendance - recompute every student's cached attendance percentage")
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	switch args[1] {
	case "addteacher":
		return cli.addTeacherCmd(ctx, args[2:])
	case "snapshots":
		result, err := cli.snapshots.Generate(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(cli.out, result.Message)
		return nil
	case "leaderboard":
		return cli.leaderboardCmd(ctx, args[2:])
	case "syncattendance":
		n, err := cli.students.SyncAttendance(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "attendance synced for %d students\n", n)
		return nil
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) addTeacherCmd(ctx context.Context, args []string) error {
	cmd := flag.NewFlagSet("addteacher", flag.ContinueOnError)
	cmd.SetOutput(cli.out)
	email := cmd.String("email", "", "The teacher's login email.")
	name := cmd.String("name", "", "The teacher's display name.")
	designation := cmd.String("designation", "", "Job title, Instructor when empty.")
	role := cmd.String("role", string(models.RoleTeacher), "teacher or admin.")
	if err := cmd.Parse(args); err != nil {
		return err
	}
	if *email == "" || *name == "" {
		cmd.Usage()
		return errHelp
	}

	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return err
	}
	if len(pwd) == 0 {
		cmd.Usage()
		return errHelp
	}

	teacher, err := cli.teachers.RegisterTeacher(ctx, service.RegisterTeacherRequest{
		Name:        *name,
		Email:       *email,
		Password:    string(pwd),
		Designation: *designation,
		Role:        models.TeacherRole(strings.ToLower(*role)),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "teacher %s created with id %s\n", teacher.Email, teacher.ID)
	return nil
}

func (cli *commandLine) leaderboardCmd(ctx context.Context, args []string) error {
	cmd := flag.NewFlagSet("leaderboard", flag.ContinueOnError)
	cmd.SetOutput(cli.out)
	sortBy := cmd.String("sort", service.SortByOGI, "OGI, attendance or assignmentScore.")
	course := cmd.String("course", "", "Only students of this course.")
	batch := cmd.String("batch", "", "Only members of this batch id.")
	if err := cmd.Parse(args); err != nil {
		return err
	}

	entries, _, err := cli.leaderboard.Get(ctx, models.LeaderboardFilter{Course: *course, BatchID: *batch, SortBy: *sortBy})
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(cli.out, "no students found")
		return nil
	}
	data := service.LeaderboardDataset(entries)
	return export.WriteTable(cli.out, data.Headers, data.Records())
}
