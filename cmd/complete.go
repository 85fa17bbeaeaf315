package cmd

import (
	"context"
	"flag"

	"github.com/etnz/debts/config"
	"github.com/etnz/debts/docs"
	"github.com/etnz/debts/store"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// Complete serves shell completion when the program is invoked by the shell
// to complete a command line, and exits. It returns otherwise.
//
// Install the completion with COMP_INSTALL=1 dm.
func Complete(name string, cfg *config.Config) {
	Completion(cfg).Complete(name)
}

// Completion returns the completion tree of the tool: subcommands, their
// flags, and debtor names for the commands taking a debtor.
func Completion(cfg *config.Config) *complete.Command {
	root := &complete.Command{
		Sub:   make(map[string]*complete.Command),
		Flags: flagPredictors(flag.CommandLine),
	}
	for _, c := range Commands(cfg) {
		fs := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
		c.SetFlags(fs)
		sub := &complete.Command{Flags: flagPredictors(fs)}
		switch c.Name() {
		case "move", "penalty", "delete", "history":
			sub.Args = complete.PredictFunc(predictDebtors)
		case "import":
			sub.Args = predict.Files("*.json")
		case "topic":
			sub.Args = complete.PredictFunc(predictTopics)
		}
		root.Sub[c.Name()] = sub
	}
	return root
}

// flagPredictors predicts the values of every flag in fs.
func flagPredictors(fs *flag.FlagSet) map[string]complete.Predictor {
	flags := make(map[string]complete.Predictor)
	fs.VisitAll(func(fl *flag.Flag) {
		if b, ok := fl.Value.(interface{ IsBoolFlag() bool }); ok && b.IsBoolFlag() {
			flags[fl.Name] = predict.Nothing
			return
		}
		switch fl.Name {
		case "store":
			flags[fl.Name] = predict.Set(store.Kinds)
		case "format":
			flags[fl.Name] = predict.Set(formats)
		case "path", "o":
			flags[fl.Name] = predict.Files("*")
		default:
			flags[fl.Name] = predict.Something
		}
	})
	return flags
}

func predictTopics(prefix string) []string {
	topics, _ := docs.GetAllTopics()
	return topics
}

// predictDebtors predicts the names of the debtors of the configured store.
func predictDebtors(prefix string) []string {
	b, closeBook, err := OpenBook(context.Background())
	if err != nil {
		return nil
	}
	defer closeBook()
	var names []string
	for _, d := range b.Debtors() {
		names = append(names, d.Name)
	}
	return names
}
