// Package batchgcd finds RSA moduli that share a prime factor with
// another modulus in the same batch, the classic weak-key audit for
// keys generated with bad entropy.
//
// Instead of the quadratic pairwise scan it uses D.J. Bernstein's
// product tree / remainder tree construction
// (http://cr.yp.to/papers.html#smoothparts), with every tree level
// persisted through a LevelStore so the working set can exceed RAM and
// the three phases can run as separate invocations.
package batchgcd
