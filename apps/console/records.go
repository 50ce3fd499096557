package main

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newListCmd(e *env) *cobra.Command {
	var opts listOptions
	cmd := &cobra.Command{
		Use:               "list SCREEN",
		Short:             "List a screen's records",
		Example:           "  masomo list exam-schedules --query math --ordering -date --group",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: screenArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := lookupScreen(args[0])
			if err != nil {
				return err
			}
			return s.List(cmd.Context(), e, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.query, "query", "q", "", "case-insensitive search")
	cmd.Flags().StringVarP(&opts.ordering, "ordering", "o", "", "comma separated sort keys, prefix with - to reverse")
	cmd.Flags().BoolVarP(&opts.group, "group", "g", false, "group records when the screen supports it")
	cmd.Flags().IntVar(&opts.retries, "retries", 0, "retry a failed load this many times")
	return cmd
}

func newShowCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:               "show SCREEN ID",
		Short:             "Show one record",
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: screenArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, id, err := screenAndID(args)
			if err != nil {
				return err
			}
			return s.Show(cmd.Context(), e, id)
		},
	}
}

func newCreateCmd(e *env) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:               "create SCREEN --file PAYLOAD",
		Short:             "Create a record from a JSON payload",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: screenArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := lookupScreen(args[0])
			if err != nil {
				return err
			}
			raw, err := readPayload(e, file)
			if err != nil {
				return err
			}
			return s.Create(cmd.Context(), e, raw)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON payload file, - for stdin")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newUpdateCmd(e *env) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:               "update SCREEN ID --file PAYLOAD",
		Short:             "Update a record with the fields of a JSON payload",
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: screenArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, id, err := screenAndID(args)
			if err != nil {
				return err
			}
			raw, err := readPayload(e, file)
			if err != nil {
				return err
			}
			return s.Update(cmd.Context(), e, id, raw)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON payload file, - for stdin")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newDeleteCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:               "delete SCREEN ID",
		Short:             "Delete a record, after confirmation",
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: screenArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, id, err := screenAndID(args)
			if err != nil {
				return err
			}
			return s.Delete(cmd.Context(), e, id)
		},
	}
}

func newUploadCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:               "upload SCREEN ID FILE",
		Short:             "Attach a file to a record (advertisement images)",
		Args:              cobra.ExactArgs(3),
		ValidArgsFunction: screenArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, id, err := screenAndID(args[:2])
			if err != nil {
				return err
			}
			return s.Upload(cmd.Context(), e, id, args[2])
		},
	}
}

func screenAndID(args []string) (screenDef, int, error) {
	s, err := lookupScreen(args[0])
	if err != nil {
		return nil, 0, err
	}
	id, err := parseID(args[1])
	if err != nil {
		return nil, 0, err
	}
	return s, id, nil
}

func readPayload(e *env, file string) ([]byte, error) {
	if file == "-" {
		raw, err := io.ReadAll(e.in)
		return raw, errors.Wrap(err, "reading payload")
	}
	raw, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.Wrap(err, "reading payload")
	}
	return raw, nil
}
