// Nnc
// Copyright (C) 2013-2026+ James Shubin and the project contributors
// Written by James Shubin <james@shubin.ca> and the project contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.


package cli

import (
	"context"

	cliUtil "github.com/purpleidea/nnc/cli/util"
	"github.com/purpleidea/nnc/lib"
	"github.com/purpleidea/nnc/util"

	"github.com/spf13/afero"
)

// compile runs the `compile` subcommand. The context is cancelled by the signal
// handler of main, which also ends a watch.
func compile(ctx context.Context, name string, args *cliUtil.CompileArgs, data *cliUtil.Data) (bool, error) {
	main := &lib.Main{}
	main.Config = &args.Config // pass in all the parsed data
	main.Input, main.Output = args.Input, args.Output

	main.Program, main.Version = data.Program, data.Version
	main.Debug = data.Flags.Debug
	main.Logf = util.PrefixLogf("lib: ", data.Flags.Logf)
	Logf := util.PrefixLogf("main: ", data.Flags.Logf)

	cliUtil.Hello(main.Program, main.Version, data.Flags) // say hello!
	defer Logf("goodbye!")
	if data.Flags.Debug {
		Logf("subcommand: %s", name)
	}

	main.Fs = afero.NewOsFs()

	if err := main.Validate(); err != nil {
		return false, cliUtil.CliParseError(err)
	}
	if err := main.Init(); err != nil {
		return false, err
	}

	if err := main.Run(ctx); err != nil {
		if data.Flags.Debug {
			Logf("%+v", err)
		}
		return false, err
	}
	return true, nil
}
