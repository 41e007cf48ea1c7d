// Package ir is the elaborated intermediate representation produced by the
// conversion pass.
//
// A Component is a Module, an Interface or an opaque SystemVerilog
// reference. Modules own numbered Variables (one Value per array element),
// Functions and Declarations made of Statements over Expressions. Every
// Expression can be typed with EvalComptime, which also reports operand
// errors and clock domain mismatches through an Env, and evaluated with
// EvalValue when all of its leaves are constant.
//
// String forms are stable and used by tests and by "veryl dump":
//
//	module Top {
//	  input var0(clk): clock = 'hx;
//	  var var1(a): logic<4> = 'hx;
//
//	  ff (var0) {
//	    var1 = (var1 + 00000001);
//	  }
//	}
package ir
