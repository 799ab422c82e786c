package lang_test

import (
	"context"
	"fmt"
	"os"

	"github.com/ardnew/molang/lang"
)

func Example() {
	ctx := context.Background()

	env := lang.NewEnv()
	_ = env.Define("math.max", lang.NewVariadic("max", 1,
		func(args []lang.Value) (lang.Value, error) {
			best, _ := args[0].Float()

			for _, a := range args[1:] {
				if f, _ := a.Float(); f > best {
					best = f
				}
			}

			return lang.Number(best), nil
		},
	))

	v, err := lang.Eval(ctx, "v.speed = 2; math.max(v.speed * 3, 4)", env)
	if err != nil {
		fmt.Println(err)

		return
	}

	fmt.Println(v)
	// Output: 6
}

func ExampleSource() {
	fmt.Println(lang.Source(lang.MustParse("(1+2)*X.y;a=b=-c")))
	// Output: (1 + 2) * x.y; a = b = -c
}

func ExampleWithStrict() {
	ctx := context.Background()
	env := lang.NewEnv(lang.WithStrict(true))

	_, err := lang.Eval(ctx, "1 + speed", env)
	fmt.Println(err)

	v, _ := lang.Eval(ctx, "speed ?? 1.5", env)
	fmt.Println(v)
	// Output:
	// unknown property "speed" at offset 4
	// 1.5
}

func ExampleWithReceiver() {
	ctx := context.Background()
	env := lang.NewEnv(lang.WithReceiver(lang.Map{"age": lang.Number(3)}))

	v, _ := lang.Eval(ctx, "q.age > 2 ? 'adult' : 'baby'", env)
	fmt.Println(v)
	// Output: adult
}

func ExampleExprCompiler() {
	ctx := context.Background()

	art, err := lang.NewExprCompiler(nil).Compile(lang.MustParse("t.x = 4; t.x * t.x"), "square")
	if err != nil {
		fmt.Println(err)

		return
	}

	v, _ := art.Run(ctx, lang.NewEnv())
	fmt.Println(art.Name(), v)
	// Output: square 16
}

func ExamplePrint() {
	lang.Print(context.Background(), os.Stdout, lang.MustParse("f(x) ?? -1"))
	// Output:
	// Coalesce
	//   Call: 1 args
	//     Identifier: f
	//     Identifier: x
	//   Unary: -
	//     Number: 1
}
