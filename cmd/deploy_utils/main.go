// Command deploy_utils computes the image tag of the current checkout and
// checks whether a tag already exists in Artifact Registry.
//
//	deploy_utils image_tag
//	deploy_utils is_tag_available <tag> --location L --repository R --package P
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"flightdelay/deploy"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: deploy_utils {image_tag,is_tag_available} ...")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	code := 2
	switch os.Args[1] {
	case "image_tag":
		code = imageTag(ctx, os.Args[2:])
	case "is_tag_available":
		code = isTagAvailable(ctx, os.Args[2:])
	default:
		usage()
	}
	stop()
	os.Exit(code)
}

func imageTag(ctx context.Context, args []string) int {
	opts := deploy.DefaultImageTagOptions()
	fs := flag.NewFlagSet("image_tag", flag.ExitOnError)
	fs.StringVar(&opts.Root, "root", opts.Root, "repository checkout")
	fs.Parse(args)

	tag, err := deploy.ImageTag(ctx, deploy.ExecRunner, opts, os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, "image_tag:", err)
		return 1
	}
	fmt.Println(tag)
	return 0
}

// isTagAvailable exits 0 when the tag is free and 1 when it is taken.
func isTagAvailable(ctx context.Context, args []string) int {
	var q deploy.TagQuery
	fs := flag.NewFlagSet("is_tag_available", flag.ExitOnError)
	fs.StringVar(&q.Location, "location", "", "repository location (required)")
	fs.StringVar(&q.Repository, "repository", "", "Artifact Registry repository (required)")
	fs.StringVar(&q.Package, "package", "", "package inside the repository (required)")

	// the tag may come before the flags
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		q.Tag, args = args[0], args[1:]
	}
	fs.Parse(args)
	if q.Tag == "" {
		q.Tag = fs.Arg(0)
	}
	if q.Tag == "" || q.Location == "" || q.Repository == "" || q.Package == "" {
		fs.Usage()
		return 2
	}

	available, err := deploy.TagAvailable(ctx, deploy.ExecRunner, q, os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, "is_tag_available:", err)
		return 2
	}
	if !available {
		return 1
	}
	return 0
}
